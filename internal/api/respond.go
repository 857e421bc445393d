// ABOUTME: JSON request decoding and response helpers shared by all handlers
// ABOUTME: Maps store errors to status codes and keeps internal error text out of responses

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/easyshop/easyshop-api/internal/store"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// writeJSON writes v with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dst. The returned error is safe to show.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return errors.New("invalid JSON body")
	}
	if dec.More() {
		return errors.New("invalid JSON body")
	}
	return nil
}

// sendStoreError maps a store failure to a response. notFound is the 404 message.
func (s *Server) sendStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicateSlug):
		s.sendJSONError(w, http.StatusConflict, "slug already exists in store")
	case errors.Is(err, store.ErrConflict):
		s.sendJSONError(w, http.StatusConflict, "resource was modified concurrently, retry")
	default:
		s.logger.Error("store operation failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationError is a 400 with a client-facing message
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
