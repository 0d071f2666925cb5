package core

import (
	"context"

	"github.com/google/uuid"
)

// EnrollmentRow is one validated data row from an uploaded spreadsheet.
// All fields are trimmed and non-empty; Dob is a canonical YYYY-MM-DD date.
type EnrollmentRow struct {
	FirstName string
	LastName  string
	Classroom string
	Dob       string
	Schedule  string
}

// ClassroomRef is the minimal classroom projection the upload pipeline
// needs to resolve names to identities.
type ClassroomRef struct {
	ID   uuid.UUID
	Name string
}

// Classroom is a classroom as configured by the operator.
type Classroom struct {
	ID       uuid.UUID
	Name     string
	AgeRange string
	Capacity int
}

// NewClassroom is a classroom create request (identity assigned by the store).
type NewClassroom struct {
	Name     string
	AgeRange string
	Capacity int
}

// Child is a stored child record. FirstName/LastName/Dob form the natural
// key; ID is the store-assigned identity.
type Child struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Dob       string
}

// NewChild is a child create request.
type NewChild struct {
	FirstName string
	LastName  string
	Dob       string
}

// NewAssignment is a classroom assignment create request for one child and
// one month. Month is a first-of-month canonical date.
type NewAssignment struct {
	ChildID     uuid.UUID
	ClassroomID uuid.UUID
	Month       string
	Schedule    string
}

// UploadCounts summarizes what a reconciliation did.
type UploadCounts struct {
	ChildrenCreated      int `json:"childrenCreated"`
	ChildrenReused       int `json:"childrenReused"`
	AssignmentsProcessed int `json:"assignmentsProcessed"`
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	FilePath string
	Counts   UploadCounts
}

// RecordStore is the durable storage collaborator. Every operation is
// scoped to the owning user; implementations must never return or touch
// another user's rows.
type RecordStore interface {
	// ListClassrooms returns id+name for every classroom the user owns.
	ListClassrooms(ctx context.Context, userID string) ([]ClassroomRef, error)

	// ListChildren returns every child record the user owns.
	ListChildren(ctx context.Context, userID string) ([]Child, error)

	// CreateChildren inserts the given children in one batch and returns
	// the created records with their assigned identities.
	CreateChildren(ctx context.Context, userID string, children []NewChild) ([]Child, error)

	// DeleteAssignments removes all assignments for the given month whose
	// child is in childIDs.
	DeleteAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID) error

	// CreateAssignments inserts assignments in one batch and returns the
	// assigned identities.
	CreateAssignments(ctx context.Context, userID string, assignments []NewAssignment) ([]uuid.UUID, error)

	// CreateClassrooms inserts classrooms in one batch.
	CreateClassrooms(ctx context.Context, userID string, classrooms []NewClassroom) error

	// ListUserClassrooms returns the user's classrooms in creation order.
	ListUserClassrooms(ctx context.Context, userID string) ([]Classroom, error)

	// DeleteClassroom removes one classroom owned by the user.
	DeleteClassroom(ctx context.Context, userID string, id uuid.UUID) error
}

// AssignmentReplacer is an optional RecordStore capability: replace a
// month's assignments for a set of children in a single atomic operation.
// Stores that implement it close the delete/insert window; others fall back
// to DeleteAssignments followed by CreateAssignments.
type AssignmentReplacer interface {
	ReplaceAssignments(ctx context.Context, userID, month string, childIDs []uuid.UUID, assignments []NewAssignment) ([]uuid.UUID, error)
}

// BlobStore archives raw uploaded files, addressed by a generated path.
type BlobStore interface {
	Store(ctx context.Context, path string, data []byte, contentType string) error
}
