package core

// errors.go defines the error taxonomy for the upload pipeline and maps
// technical errors to user-facing messages with support codes.
//
// Taxonomy:
//   - ValidationError: malformed request input (bad file type, unreadable
//     body, invalid classroom payload). Recoverable by the caller.
//   - ParseError: structural spreadsheet problems (no sheets, missing
//     headers, missing columns, invalid rows). Recoverable by the caller.
//   - ReconcileError: unknown classrooms or a store write failure mid
//     reconciliation. Write failures after child creation are not rolled
//     back; a retried upload converges because child creation is keyed by
//     natural key and assignment replacement is scoped to the uploaded
//     children.
//   - StoreError: the record store rejected a read.
//   - BlobError: the blob store rejected the raw file.

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ParseError reports a structural problem with the uploaded spreadsheet.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// ReconcileError reports a failure while reconciling extracted rows against
// the record store. Err is nil for pure validation failures (unknown
// classrooms) and non-nil when a store write failed.
type ReconcileError struct {
	Message string
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// StoreFailed reports whether the reconciliation error was caused by a
// record store failure rather than bad input.
func (e *ReconcileError) StoreFailed() bool { return e.Err != nil }

// StoreError reports a record store read failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("record store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// BlobError reports a blob store failure.
type BlobError struct {
	Path string
	Err  error
}

func (e *BlobError) Error() string { return fmt.Sprintf("blob store %s: %v", e.Path, e.Err) }

func (e *BlobError) Unwrap() error { return e.Err }

// UserMessage is a user-friendly error with a support code.
// Users can quote the code to support staff for faster diagnosis.
type UserMessage struct {
	Code    string // Short code for support reference (e.g. "PARSE001")
	Message string // What went wrong, in user terms
	Action  string // What the user can do about it
}

// MapError converts a pipeline error into a UserMessage.
//
// Codes:
//
//	VAL001   - malformed request input
//	PARSE001 - spreadsheet structure problem
//	REC001   - unknown classrooms referenced by the upload
//	REC002   - store write failed during reconciliation
//	STORE001 - record store read failed
//	BLOB001  - raw file archival failed
//	GEN001   - anything else
func MapError(err error) UserMessage {
	var (
		valErr   *ValidationError
		parseErr *ParseError
		recErr   *ReconcileError
		storeErr *StoreError
		blobErr  *BlobError
	)

	switch {
	case errors.As(err, &valErr):
		return UserMessage{
			Code:    "VAL001",
			Message: valErr.Message,
			Action:  "Fix the request and try again.",
		}
	case errors.As(err, &parseErr):
		return UserMessage{
			Code:    "PARSE001",
			Message: parseErr.Message,
			Action:  "Update the spreadsheet and re-upload the file.",
		}
	case errors.As(err, &recErr):
		if recErr.StoreFailed() {
			return UserMessage{
				Code:    "REC002",
				Message: recErr.Message,
				Action:  "Please try again. Re-uploading the same file is safe.",
			}
		}
		return UserMessage{
			Code:    "REC001",
			Message: recErr.Message,
			Action:  "Create the missing classrooms before uploading.",
		}
	case errors.As(err, &storeErr):
		return UserMessage{
			Code:    "STORE001",
			Message: "Failed to load existing records. Please try again.",
			Action:  "Please try again in a few moments.",
		}
	case errors.As(err, &blobErr):
		return UserMessage{
			Code:    "BLOB001",
			Message: "We could not store the uploaded file. Please try again.",
			Action:  "Please try again in a few moments.",
		}
	default:
		return UserMessage{
			Code:    "GEN001",
			Message: "Something went wrong processing the upload.",
			Action:  "Please try again or contact support with this code.",
		}
	}
}
