package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-inventory/internal/entity"
)

// jsonIndent is the indentation used for every response body.
const jsonIndent = "    "

// internalErrorMessage is the only text clients see for unclassified failures.
const internalErrorMessage = "internal server error"

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.MarshalIndent(v, "", jsonIndent)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(internalErrorMessage) //nolint:errcheck // Marshalling a string cannot fail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(append(body, '\n'))
}

// writeError writes message as a bare JSON string.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, message)
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}

// statusFor maps an entity error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownDriver), errors.Is(err, entity.ErrTypeMismatch):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrValidation):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidRequest), errors.Is(err, entity.ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeEntityError writes err with its mapped status. Unclassified errors
// are logged and hidden from the client.
func (s *Server) writeEntityError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("entity request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w)
		return
	}

	message := entity.Message(err)
	if message == "" {
		message = err.Error()
	}
	writeError(w, status, message)
}
