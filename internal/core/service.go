package core

// service.go orchestrates the upload pipeline and the classroom
// configuration operations. The Service owns its collaborators (record
// store, blob store) through dependency injection; they are created once
// per process and reused.

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/enrollhub/enrollhub/internal/blob"
	"github.com/enrollhub/enrollhub/internal/logging"
)

// XlsxContentType is the default content type recorded for uploads when the
// client does not supply one.
const XlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ageRangePattern is the <start>-<end> shape required of classroom age
// ranges on the configuration form.
var ageRangePattern = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

// Service is the application core: extraction, reconciliation, and
// classroom configuration over injected collaborators.
type Service struct {
	store RecordStore
	blobs BlobStore

	// now supplies wall-clock time; swapped in tests to pin the month.
	now func() time.Time
}

// NewService creates a Service over the given collaborators.
func NewService(store RecordStore, blobs BlobStore) *Service {
	return &Service{
		store: store,
		blobs: blobs,
		now:   time.Now,
	}
}

// ProcessUpload runs the full pipeline for one uploaded file: validate the
// file type, extract and validate rows, archive the raw bytes, and
// reconcile against the store. Extraction completes before any write, so
// validation failures never leave partial state.
func (s *Service) ProcessUpload(ctx context.Context, userID, fileName, contentType string, data []byte) (*UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		return nil, &ValidationError{Message: "Only .xlsx files are supported."}
	}
	if len(data) == 0 {
		return nil, &ValidationError{Message: "The uploaded file is empty."}
	}

	logger := logging.WithFields(ctx, "user_id", userID, "file", fileName)

	rows, err := ExtractRows(data)
	if err != nil {
		return nil, err
	}
	logger.Info("spreadsheet extracted", "rows", len(rows))

	if contentType == "" {
		contentType = XlsxContentType
	}
	path := s.uploadPath(userID, fileName)
	if err := s.blobs.Store(ctx, path, data, contentType); err != nil {
		return nil, &BlobError{Path: path, Err: err}
	}

	counts, err := s.reconcile(ctx, userID, rows)
	if err != nil {
		return nil, err
	}

	logger.Info("upload reconciled",
		"children_created", counts.ChildrenCreated,
		"children_reused", counts.ChildrenReused,
		"assignments", counts.AssignmentsProcessed,
	)

	return &UploadResult{FilePath: path, Counts: counts}, nil
}

// uploadPath builds the blob path for a raw upload:
// uploads/<userID>/<timestamp>_<sanitizedName>.
func (s *Service) uploadPath(userID, fileName string) string {
	timestamp := s.now().UTC().Format(time.RFC3339)
	timestamp = strings.NewReplacer(":", "-", ".", "-").Replace(timestamp)
	return fmt.Sprintf("uploads/%s/%s_%s", userID, timestamp, blob.SanitizeFileName(fileName))
}

// SaveClassrooms validates and creates a batch of classrooms. The whole
// batch is rejected if any entry fails validation; nothing is partially
// applied.
func (s *Service) SaveClassrooms(ctx context.Context, userID string, classrooms []NewClassroom) error {
	if len(classrooms) == 0 {
		return &ValidationError{Message: "At least one classroom is required."}
	}

	cleaned := make([]NewClassroom, 0, len(classrooms))
	for i, c := range classrooms {
		name := strings.TrimSpace(c.Name)
		ageRange := strings.TrimSpace(c.AgeRange)

		if name == "" {
			return &ValidationError{Message: fmt.Sprintf("Classroom %d: name is required.", i+1)}
		}
		if ageRange == "" {
			return &ValidationError{Message: fmt.Sprintf("Classroom %d: age range is required.", i+1)}
		}
		m := ageRangePattern.FindStringSubmatch(ageRange)
		if m == nil {
			return &ValidationError{Message: fmt.Sprintf("Classroom %d: age range must look like 2-4.", i+1)}
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end <= start {
			return &ValidationError{Message: fmt.Sprintf("Classroom %d: age range end must be greater than start.", i+1)}
		}
		if c.Capacity <= 0 {
			return &ValidationError{Message: fmt.Sprintf("Classroom %d: capacity must be a positive integer.", i+1)}
		}

		cleaned = append(cleaned, NewClassroom{Name: name, AgeRange: ageRange, Capacity: c.Capacity})
	}

	if err := s.store.CreateClassrooms(ctx, userID, cleaned); err != nil {
		return &StoreError{Op: "create classrooms", Err: err}
	}

	logging.FromContext(ctx).Info("classrooms created", "user_id", userID, "count", len(cleaned))
	return nil
}

// Classrooms returns the user's classrooms in creation order.
func (s *Service) Classrooms(ctx context.Context, userID string) ([]Classroom, error) {
	list, err := s.store.ListUserClassrooms(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list classrooms", Err: err}
	}
	return list, nil
}

// DeleteClassroom removes one classroom owned by the user.
func (s *Service) DeleteClassroom(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.DeleteClassroom(ctx, userID, id); err != nil {
		return &StoreError{Op: "delete classroom", Err: err}
	}
	return nil
}
