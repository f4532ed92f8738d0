// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler converts any error into the standard HTTP error envelope
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the wire envelope for failed requests.
type ErrorResponse struct {
	Success          bool        `json:"success"`
	Message          string      `json:"message"`
	ErrorCode        string      `json:"error_code"`
	Details          string      `json:"details,omitempty"`
	ValidationErrors interface{} `json:"validation_errors,omitempty"`
}

// WriteHTTP writes err to w as the standard envelope with the mapped status.
func (h *ErrorHandler) WriteHTTP(w http.ResponseWriter, r *http.Request, err error) {
	// Normalize to StandardError
	stdErr := Normalize(err)

	// Map to an HTTP status
	status := HTTPStatus(stdErr.Code)

	// Log
	h.logError(r, stdErr, status)

	resp := ErrorResponse{
		Success:   false,
		Message:   stdErr.Message,
		ErrorCode: string(stdErr.Code),
		Details:   stdErr.Details,
	}
	if stdErr.Metadata != nil {
		resp.ValidationErrors = stdErr.Metadata["validation_errors"]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeService:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeAuthorization:
		return http.StatusForbidden
	case ErrCodeExternalService:
		return http.StatusBadGateway
	case ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
