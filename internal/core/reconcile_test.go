package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeStore is a map-backed RecordStore with write counters and failure
// injection, local to these tests.
type fakeStore struct {
	classrooms  []ClassroomRef
	children    []Child
	assignments []NewAssignment

	createChildrenCalls   int
	deleteAssignmentCalls int
	createAssignmentCalls int

	failCreateChildren    error
	failCreateAssignments error
}

func (f *fakeStore) ListClassrooms(ctx context.Context, userID string) ([]ClassroomRef, error) {
	return f.classrooms, nil
}

func (f *fakeStore) ListChildren(ctx context.Context, userID string) ([]Child, error) {
	out := make([]Child, len(f.children))
	copy(out, f.children)
	return out, nil
}

func (f *fakeStore) CreateChildren(ctx context.Context, userID string, children []NewChild) ([]Child, error) {
	f.createChildrenCalls++
	if f.failCreateChildren != nil {
		return nil, f.failCreateChildren
	}
	created := make([]Child, 0, len(children))
	for _, c := range children {
		child := Child{ID: uuid.New(), FirstName: c.FirstName, LastName: c.LastName, Dob: c.Dob}
		f.children = append(f.children, child)
		created = append(created, child)
	}
	return created, nil
}

func (f *fakeStore) DeleteAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID) error {
	f.deleteAssignmentCalls++
	targets := make(map[uuid.UUID]bool)
	for _, id := range childIDs {
		targets[id] = true
	}
	kept := f.assignments[:0]
	for _, a := range f.assignments {
		if a.Month == month && targets[a.ChildID] {
			continue
		}
		kept = append(kept, a)
	}
	f.assignments = kept
	return nil
}

func (f *fakeStore) CreateAssignments(ctx context.Context, userID string, assignments []NewAssignment) ([]uuid.UUID, error) {
	f.createAssignmentCalls++
	if f.failCreateAssignments != nil {
		return nil, f.failCreateAssignments
	}
	ids := make([]uuid.UUID, len(assignments))
	for i := range assignments {
		ids[i] = uuid.New()
	}
	f.assignments = append(f.assignments, assignments...)
	return ids, nil
}

func (f *fakeStore) CreateClassrooms(ctx context.Context, userID string, classrooms []NewClassroom) error {
	for _, c := range classrooms {
		f.classrooms = append(f.classrooms, ClassroomRef{ID: uuid.New(), Name: c.Name})
	}
	return nil
}

func (f *fakeStore) ListUserClassrooms(ctx context.Context, userID string) ([]Classroom, error) {
	return nil, nil
}

func (f *fakeStore) DeleteClassroom(ctx context.Context, userID string, id uuid.UUID) error {
	return nil
}

func (f *fakeStore) writeCalls() int {
	return f.createChildrenCalls + f.deleteAssignmentCalls + f.createAssignmentCalls
}

// nopBlob accepts every store call.
type nopBlob struct{}

func (nopBlob) Store(ctx context.Context, path string, data []byte, contentType string) error {
	return nil
}

func newTestService(store RecordStore) *Service {
	s := NewService(store, nopBlob{})
	s.now = func() time.Time { return time.Date(2024, time.July, 15, 10, 30, 0, 0, time.UTC) }
	return s
}

func toddlersStore() *fakeStore {
	return &fakeStore{
		classrooms: []ClassroomRef{{ID: uuid.New(), Name: "Toddlers"}},
	}
}

var averyRow = EnrollmentRow{
	FirstName: "Avery",
	LastName:  "Johnson",
	Classroom: "Toddlers",
	Dob:       "2019-03-14",
	Schedule:  "Mon-Fri",
}

func TestReconcile_FirstUpload(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	counts, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	want := UploadCounts{ChildrenCreated: 1, ChildrenReused: 0, AssignmentsProcessed: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}

	if len(store.children) != 1 || store.children[0].Dob != "2019-03-14" {
		t.Errorf("children = %+v, want one child with dob 2019-03-14", store.children)
	}
	if len(store.assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(store.assignments))
	}
	a := store.assignments[0]
	if a.Month != "2024-07-01" {
		t.Errorf("assignment month = %q, want 2024-07-01", a.Month)
	}
	if a.Schedule != "Mon-Fri" {
		t.Errorf("assignment schedule = %q, want Mon-Fri", a.Schedule)
	}
}

func TestReconcile_IdempotentReupload(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	if _, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	counts, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow})
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	want := UploadCounts{ChildrenCreated: 0, ChildrenReused: 1, AssignmentsProcessed: 1}
	if counts != want {
		t.Errorf("second run counts = %+v, want %+v", counts, want)
	}
	if len(store.children) != 1 {
		t.Errorf("children duplicated on re-upload: %d records", len(store.children))
	}
	if len(store.assignments) != 1 {
		t.Errorf("assignments = %d, want 1 (old one replaced, not stacked)", len(store.assignments))
	}
}

func TestReconcile_UnknownClassroomBlocksAllWrites(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	row := averyRow
	row.Classroom = "Infants"

	_, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{row})
	var recErr *ReconcileError
	if !errors.As(err, &recErr) {
		t.Fatalf("got %T (%v), want *ReconcileError", err, err)
	}
	if recErr.StoreFailed() {
		t.Error("unknown classroom is a validation failure, not a store failure")
	}
	if got := recErr.Error(); !strings.Contains(got, "Infants") {
		t.Errorf("error should name the missing classroom, got %q", got)
	}
	if store.writeCalls() != 0 {
		t.Errorf("store received %d write calls, want 0", store.writeCalls())
	}
}

func TestReconcile_ClassroomMatchIsCaseInsensitive(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	row := averyRow
	row.Classroom = "TODDLERS"

	if _, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{row}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if store.assignments[0].ClassroomID != store.classrooms[0].ID {
		t.Error("classroom name should resolve case-insensitively")
	}
}

func TestReconcile_DuplicateRowsLastWins(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	first := averyRow
	second := averyRow
	second.Schedule = "Tue-Thu"

	counts, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{first, second})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if counts.ChildrenCreated != 1 || counts.AssignmentsProcessed != 1 {
		t.Errorf("counts = %+v, want one child and one assignment", counts)
	}
	if store.assignments[0].Schedule != "Tue-Thu" {
		t.Errorf("schedule = %q, want the later row to win", store.assignments[0].Schedule)
	}
}

func TestReconcile_ChildCreationFailure(t *testing.T) {
	store := toddlersStore()
	store.failCreateChildren = errors.New("insert refused")
	svc := newTestService(store)

	_, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow})
	var recErr *ReconcileError
	if !errors.As(err, &recErr) {
		t.Fatalf("got %T, want *ReconcileError", err)
	}
	if !recErr.StoreFailed() {
		t.Error("child creation failure should be a store failure")
	}
	if store.deleteAssignmentCalls != 0 || store.createAssignmentCalls != 0 {
		t.Error("no assignment writes may happen after child creation fails")
	}
}

func TestReconcile_AssignmentInsertFailure(t *testing.T) {
	store := toddlersStore()
	store.failCreateAssignments = errors.New("insert refused")
	svc := newTestService(store)

	_, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow})
	var recErr *ReconcileError
	if !errors.As(err, &recErr) || !recErr.StoreFailed() {
		t.Fatalf("got %v, want store-failure *ReconcileError", err)
	}
	// Children created before the failure stay; a retry reuses them.
	if len(store.children) != 1 {
		t.Errorf("children = %d, want the created child to remain", len(store.children))
	}
}

func TestReconcile_OmittedChildKeepsAssignment(t *testing.T) {
	store := toddlersStore()
	svc := newTestService(store)

	other := EnrollmentRow{
		FirstName: "Riley", LastName: "Chen", Classroom: "Toddlers",
		Dob: "2020-01-02", Schedule: "Mon",
	}
	if _, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow, other}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	// Second upload omits Riley: Riley's assignment must survive.
	if _, err := svc.reconcile(context.Background(), "user-1", []EnrollmentRow{averyRow}); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(store.assignments) != 2 {
		t.Errorf("assignments = %d, want 2 (omitted child untouched)", len(store.assignments))
	}
}

func TestBuildPlan_PartitionsExistingAndNew(t *testing.T) {
	roomID := uuid.New()
	existing := Child{ID: uuid.New(), FirstName: "Avery", LastName: "Johnson", Dob: "2019-03-14"}

	rows := []EnrollmentRow{
		averyRow,
		{FirstName: "Riley", LastName: "Chen", Classroom: "Toddlers", Dob: "2020-01-02", Schedule: "Mon"},
	}
	plan, err := buildPlan(rows,
		[]ClassroomRef{{ID: roomID, Name: "Toddlers"}},
		[]Child{existing})
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}

	if len(plan.rows) != 2 {
		t.Fatalf("deduped rows = %d, want 2", len(plan.rows))
	}
	if len(plan.newChildren) != 1 || plan.newChildren[0].FirstName != "Riley" {
		t.Errorf("newChildren = %+v, want only Riley", plan.newChildren)
	}
	if plan.childIDs[ChildKey("avery", "johnson", "2019-03-14")] != existing.ID {
		t.Error("existing child should resolve to its stored identity")
	}
}
