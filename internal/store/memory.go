package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/enrollhub/enrollhub/internal/core"
)

// Memory is a map-backed RecordStore guarded by a mutex, used by tests and
// local development. It deliberately does not implement the atomic
// assignment-replace capability so the delete-then-insert path stays
// exercised.
//
// Write calls are counted and individually failable, which lets tests
// assert "no writes happened" and drive error paths.
type Memory struct {
	mu sync.Mutex

	classrooms  map[string][]core.Classroom   // userID -> classrooms in creation order
	children    map[string][]core.Child       // userID -> children
	assignments map[string][]memoryAssignment // userID -> assignments

	// Write-call counters.
	CreateChildrenCalls   int
	DeleteAssignmentCalls int
	CreateAssignmentCalls int
	CreateClassroomCalls  int

	// Failure injection: when set, the matching operation returns the error.
	FailCreateChildren    error
	FailDeleteAssignments error
	FailCreateAssignments error
	FailListClassrooms    error
	FailListChildren      error
}

type memoryAssignment struct {
	ID          uuid.UUID
	ChildID     uuid.UUID
	ClassroomID uuid.UUID
	Month       string
	Schedule    string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		classrooms:  make(map[string][]core.Classroom),
		children:    make(map[string][]core.Child),
		assignments: make(map[string][]memoryAssignment),
	}
}

func (m *Memory) ListClassrooms(ctx context.Context, userID string) ([]core.ClassroomRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListClassrooms != nil {
		return nil, m.FailListClassrooms
	}
	refs := make([]core.ClassroomRef, 0, len(m.classrooms[userID]))
	for _, c := range m.classrooms[userID] {
		refs = append(refs, core.ClassroomRef{ID: c.ID, Name: c.Name})
	}
	return refs, nil
}

func (m *Memory) ListChildren(ctx context.Context, userID string) ([]core.Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListChildren != nil {
		return nil, m.FailListChildren
	}
	out := make([]core.Child, len(m.children[userID]))
	copy(out, m.children[userID])
	return out, nil
}

func (m *Memory) CreateChildren(ctx context.Context, userID string, children []core.NewChild) ([]core.Child, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateChildrenCalls++
	if m.FailCreateChildren != nil {
		return nil, m.FailCreateChildren
	}
	created := make([]core.Child, 0, len(children))
	for _, c := range children {
		child := core.Child{ID: uuid.New(), FirstName: c.FirstName, LastName: c.LastName, Dob: c.Dob}
		m.children[userID] = append(m.children[userID], child)
		created = append(created, child)
	}
	return created, nil
}

func (m *Memory) DeleteAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteAssignmentCalls++
	if m.FailDeleteAssignments != nil {
		return m.FailDeleteAssignments
	}
	targets := make(map[uuid.UUID]bool, len(childIDs))
	for _, id := range childIDs {
		targets[id] = true
	}
	kept := m.assignments[userID][:0]
	for _, a := range m.assignments[userID] {
		if a.Month == month && targets[a.ChildID] {
			continue
		}
		kept = append(kept, a)
	}
	m.assignments[userID] = kept
	return nil
}

func (m *Memory) CreateAssignments(ctx context.Context, userID string, assignments []core.NewAssignment) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateAssignmentCalls++
	if m.FailCreateAssignments != nil {
		return nil, m.FailCreateAssignments
	}
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		id := uuid.New()
		m.assignments[userID] = append(m.assignments[userID], memoryAssignment{
			ID:          id,
			ChildID:     a.ChildID,
			ClassroomID: a.ClassroomID,
			Month:       a.Month,
			Schedule:    a.Schedule,
		})
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) CreateClassrooms(ctx context.Context, userID string, classrooms []core.NewClassroom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateClassroomCalls++
	for _, c := range classrooms {
		m.classrooms[userID] = append(m.classrooms[userID], core.Classroom{
			ID:       uuid.New(),
			Name:     c.Name,
			AgeRange: c.AgeRange,
			Capacity: c.Capacity,
		})
	}
	return nil
}

func (m *Memory) ListUserClassrooms(ctx context.Context, userID string) ([]core.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Classroom, len(m.classrooms[userID]))
	copy(out, m.classrooms[userID])
	return out, nil
}

func (m *Memory) DeleteClassroom(ctx context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.classrooms[userID]
	for i, c := range list {
		if c.ID == id {
			m.classrooms[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("classroom not found")
}

// AssignmentsFor returns the user's assignments for a month, for test
// assertions.
func (m *Memory) AssignmentsFor(userID, month string) []core.NewAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.NewAssignment
	for _, a := range m.assignments[userID] {
		if a.Month == month {
			out = append(out, core.NewAssignment{
				ChildID:     a.ChildID,
				ClassroomID: a.ClassroomID,
				Month:       a.Month,
				Schedule:    a.Schedule,
			})
		}
	}
	return out
}

// ChildrenFor returns the user's stored children, for test assertions.
func (m *Memory) ChildrenFor(userID string) []core.Child {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Child, len(m.children[userID]))
	copy(out, m.children[userID])
	return out
}

// WriteCalls returns the total number of write calls the store has seen.
func (m *Memory) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateChildrenCalls + m.DeleteAssignmentCalls + m.CreateAssignmentCalls + m.CreateClassroomCalls
}
