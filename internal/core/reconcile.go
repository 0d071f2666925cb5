package core

// reconcile.go brings the record store in line with an upload for the
// current month. It is deliberately not a general diff: it never deletes a
// child or a classroom, never touches other months, and only replaces
// assignments for children actually present in the upload.

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// reconcilePlan is the pure outcome of matching extracted rows against the
// user's stored classrooms and children, before any write happens.
type reconcilePlan struct {
	// rows is the de-duplicated upload, keyed by child natural key, in
	// first-appearance order. Later duplicate rows win.
	rows []EnrollmentRow

	// classroomIDs maps classroom keys to stored identities.
	classroomIDs map[string]uuid.UUID

	// childIDs maps child keys to stored identities. Populated with
	// existing children at plan time; newly created children are merged in
	// during apply.
	childIDs map[string]uuid.UUID

	// newChildren are the create requests for child keys the store has
	// never seen, in row order.
	newChildren []NewChild
}

// buildPlan validates classroom references, de-duplicates rows by child
// natural key (last occurrence wins), and partitions children into existing
// and new. It fails with a *ReconcileError naming every unknown classroom;
// the engine never auto-creates classrooms.
func buildPlan(rows []EnrollmentRow, classrooms []ClassroomRef, children []Child) (*reconcilePlan, error) {
	plan := &reconcilePlan{
		classroomIDs: make(map[string]uuid.UUID, len(classrooms)),
		childIDs:     make(map[string]uuid.UUID, len(children)),
	}
	for _, c := range classrooms {
		plan.classroomIDs[ClassroomKey(c.Name)] = c.ID
	}
	for _, c := range children {
		plan.childIDs[ChildKey(c.FirstName, c.LastName, c.Dob)] = c.ID
	}

	var missing []string
	seenMissing := make(map[string]bool)
	for _, row := range rows {
		key := ClassroomKey(row.Classroom)
		if _, ok := plan.classroomIDs[key]; !ok && !seenMissing[key] {
			seenMissing[key] = true
			missing = append(missing, row.Classroom)
		}
	}
	if len(missing) > 0 {
		return nil, &ReconcileError{
			Message: fmt.Sprintf("The following classrooms do not exist for your account: %s. Please create them before uploading.",
				strings.Join(missing, ", ")),
		}
	}

	// Dedupe by child key: keep first-appearance order, last occurrence
	// value.
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		key := ChildKey(row.FirstName, row.LastName, row.Dob)
		if i, ok := index[key]; ok {
			plan.rows[i] = row
			continue
		}
		index[key] = len(plan.rows)
		plan.rows = append(plan.rows, row)
	}

	for _, row := range plan.rows {
		key := ChildKey(row.FirstName, row.LastName, row.Dob)
		if _, ok := plan.childIDs[key]; ok {
			continue
		}
		plan.newChildren = append(plan.newChildren, NewChild{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Dob:       row.Dob,
		})
	}

	return plan, nil
}

// reconcile runs the full reconciliation for one upload: load state, plan,
// create missing children, and replace the current month's assignments for
// the uploaded children.
func (s *Service) reconcile(ctx context.Context, userID string, rows []EnrollmentRow) (UploadCounts, error) {
	var counts UploadCounts

	classrooms, err := s.store.ListClassrooms(ctx, userID)
	if err != nil {
		return counts, &StoreError{Op: "list classrooms", Err: err}
	}
	children, err := s.store.ListChildren(ctx, userID)
	if err != nil {
		return counts, &StoreError{Op: "list children", Err: err}
	}

	plan, err := buildPlan(rows, classrooms, children)
	if err != nil {
		return counts, err
	}

	if len(plan.newChildren) > 0 {
		created, err := s.store.CreateChildren(ctx, userID, plan.newChildren)
		if err != nil {
			return counts, &ReconcileError{
				Message: "Failed to create child records. Please try again.",
				Err:     err,
			}
		}
		for _, c := range created {
			plan.childIDs[ChildKey(c.FirstName, c.LastName, c.Dob)] = c.ID
		}
		counts.ChildrenCreated = len(created)
	}
	counts.ChildrenReused = len(plan.rows) - counts.ChildrenCreated

	month := firstOfMonth(s.now())

	assignments := make([]NewAssignment, 0, len(plan.rows))
	childIDs := make([]uuid.UUID, 0, len(plan.rows))
	seen := make(map[uuid.UUID]bool, len(plan.rows))
	for _, row := range plan.rows {
		childID, okChild := plan.childIDs[ChildKey(row.FirstName, row.LastName, row.Dob)]
		classroomID, okRoom := plan.classroomIDs[ClassroomKey(row.Classroom)]
		if !okChild || !okRoom {
			// buildPlan and CreateChildren guarantee both lookups; a miss
			// here is a broken invariant, not bad user input.
			return counts, fmt.Errorf("reconcile: unresolved identity for %s %s", row.FirstName, row.LastName)
		}
		assignments = append(assignments, NewAssignment{
			ChildID:     childID,
			ClassroomID: classroomID,
			Month:       month,
			Schedule:    row.Schedule,
		})
		if !seen[childID] {
			seen[childID] = true
			childIDs = append(childIDs, childID)
		}
	}

	if len(assignments) == 0 {
		return counts, nil
	}

	inserted, err := s.replaceAssignments(ctx, userID, month, childIDs, assignments)
	if err != nil {
		return counts, err
	}
	counts.AssignmentsProcessed = inserted

	return counts, nil
}

// replaceAssignments swaps the month's assignments for the touched
// children. When the store can do it atomically the delete/insert window
// disappears; otherwise the two calls run back to back and a failure
// between them leaves the month empty for those children until the next
// upload (retrying the same file converges).
func (s *Service) replaceAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID, assignments []NewAssignment) (int, error) {
	if replacer, ok := s.store.(AssignmentReplacer); ok {
		ids, err := replacer.ReplaceAssignments(ctx, userID, month, childIDs, assignments)
		if err != nil {
			return 0, &ReconcileError{
				Message: "Failed to save classroom assignments. Please try again.",
				Err:     err,
			}
		}
		return len(ids), nil
	}

	if err := s.store.DeleteAssignments(ctx, userID, month, childIDs); err != nil {
		return 0, &ReconcileError{
			Message: "Failed to prepare classroom assignments. Please try again.",
			Err:     err,
		}
	}
	ids, err := s.store.CreateAssignments(ctx, userID, assignments)
	if err != nil {
		return 0, &ReconcileError{
			Message: "Failed to save classroom assignments. Please try again.",
			Err:     err,
		}
	}
	return len(ids), nil
}
