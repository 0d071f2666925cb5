package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/enrollhub/enrollhub/internal/core"
)

// uploadResponse is the 201 body for a successful upload.
type uploadResponse struct {
	Success  bool              `json:"success"`
	FilePath string            `json:"filePath"`
	Counts   core.UploadCounts `json:"counts"`
}

// classroomSubmission mirrors the configuration form's JSON shape.
type classroomSubmission struct {
	Name     string `json:"name"`
	AgeRange string `json:"age_range"`
	Capacity int    `json:"capacity"`
}

type classroomsPayload struct {
	Classrooms []classroomSubmission `json:"classrooms"`
}

// classroomView is the JSON projection of a configured classroom.
type classroomView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AgeRange string `json:"age_range"`
	Capacity int    `json:"capacity"`
}

// handleUpload accepts a multipart enrollment spreadsheet, runs the
// pipeline, and returns summary counts.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID := core.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: "Unauthorized."})
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "Invalid form data or file too large."})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "No file was uploaded."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "Unable to read the uploaded file."})
		return
	}

	result, err := s.service.ProcessUpload(r.Context(), userID, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Success:  true,
		FilePath: result.FilePath,
		Counts:   result.Counts,
	})
}

// handleSaveClassrooms creates a batch of classrooms; the whole batch is
// rejected if any entry is invalid.
func (s *Server) handleSaveClassrooms(w http.ResponseWriter, r *http.Request) {
	userID := core.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: "Unauthorized."})
		return
	}

	var payload classroomsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "Invalid JSON body."})
		return
	}

	classrooms := make([]core.NewClassroom, len(payload.Classrooms))
	for i, c := range payload.Classrooms {
		classrooms[i] = core.NewClassroom{Name: c.Name, AgeRange: c.AgeRange, Capacity: c.Capacity}
	}

	if err := s.service.SaveClassrooms(r.Context(), userID, classrooms); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// handleListClassrooms returns the caller's classrooms in creation order.
func (s *Server) handleListClassrooms(w http.ResponseWriter, r *http.Request) {
	userID := core.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: "Unauthorized."})
		return
	}

	classrooms, err := s.service.Classrooms(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	views := make([]classroomView, len(classrooms))
	for i, c := range classrooms {
		views[i] = classroomView{
			ID:       c.ID.String(),
			Name:     c.Name,
			AgeRange: c.AgeRange,
			Capacity: c.Capacity,
		}
	}
	writeJSON(w, http.StatusOK, map[string][]classroomView{"classrooms": views})
}

// handleDeleteClassroom removes one classroom on explicit user request.
func (s *Server) handleDeleteClassroom(w http.ResponseWriter, r *http.Request) {
	userID := core.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: "Unauthorized."})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "Invalid classroom id."})
		return
	}

	if err := s.service.DeleteClassroom(r.Context(), userID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
