// internal/server/httputil.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "propsim/internal/common/errors"
	"propsim/internal/storage"
)

// writeJSON writes v with the given status. Encode failures are dropped;
// by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail normalizes err and writes the standard error envelope, logged under
// the request id.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.NewErrorHandler(s.requestLogger(r)).WriteHTTP(w, err)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// badBody reports an undecodable request body.
func badBody(err error) *apperrors.StandardError {
	return apperrors.NewValidationFailedError("request body is not valid JSON: "+err.Error(), nil)
}

// idParam parses the named numeric path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationFailedError(
			"path parameter "+name+" must be a positive integer",
			map[string]interface{}{name: raw},
		)
	}
	return id, nil
}

// storageErr maps a repository failure onto the standard error type.
func storageErr(op, resource string, id int64, err error) *apperrors.StandardError {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFoundError(resource, strconv.FormatInt(id, 10))
	}
	return apperrors.NewStorageQueryFailedError(op, err)
}

// notFound reports a read that came back empty.
func notFound(resource string, id int64) *apperrors.StandardError {
	return apperrors.NewNotFoundError(resource, strconv.FormatInt(id, 10))
}
