package web

// errors.go centralizes error responses. Every handler error is logged with
// full technical detail and the request ID, then returned to the client as
// a sanitized {success:false, error:...} body with the status the error
// class calls for:
//
//	401 - unauthenticated caller
//	400 - malformed input, spreadsheet parse failures, unknown classrooms
//	500 - record store failures (reads and reconciliation writes)
//	502 - blob store failures

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/enrollhub/enrollhub/internal/core"
)

// errorBody is the JSON error envelope shared by all endpoints.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Action  string `json:"action,omitempty"`
}

// respondError maps a pipeline error to an HTTP status, logs it, and writes
// the user-facing body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, status, errorBody{
		Success: false,
		Error:   msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
	})
}

// statusFor picks the HTTP status for an error class.
func statusFor(err error) int {
	var (
		valErr   *core.ValidationError
		parseErr *core.ParseError
		recErr   *core.ReconcileError
		storeErr *core.StoreError
		blobErr  *core.BlobError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &recErr):
		if recErr.StoreFailed() {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError
	case errors.As(err, &blobErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
