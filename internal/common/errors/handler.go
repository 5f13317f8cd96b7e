// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler normalizes errors and writes the standard HTTP error envelope.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorEnvelope is the wire shape for all error responses.
type errorEnvelope struct {
	Error *StandardError `json:"error"`
}

// WriteHTTP normalizes err to a StandardError, logs it, and writes the
// JSON envelope with the status implied by the error code.
func (h *ErrorHandler) WriteHTTP(w http.ResponseWriter, err error) {
	stdErr := From(err)
	h.logError(stdErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: stdErr})
}

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidConfiguration, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		if IsRetryableErrorCode(code) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}

func (h *ErrorHandler) logError(stdErr *StandardError) {
	h.logger.Error("Request failed", map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
