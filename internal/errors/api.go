package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with additional details.
func NewAPIErrorWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error responses for common scenarios.
var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrNotFound       = NewAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// InvalidParameter creates a bad-request error naming the offending parameter.
func InvalidParameter(name, message string) *APIError {
	return NewAPIErrorWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", message, map[string]string{"parameter": name})
}

// ConfigurationError surfaces a startup/configuration failure such as a
// missing data root.
func ConfigurationError(err error) *APIError {
	return NewAPIErrorWithDetails(http.StatusInternalServerError, "CONFIGURATION_ERROR", "Service is misconfigured", err.Error())
}

// IngestFailure surfaces a batch-wide ingestion failure with its skip report.
func IngestFailure(err *IngestError) *APIError {
	return NewAPIErrorWithDetails(http.StatusInternalServerError, "INGEST_FAILED", err.Err.Error(), err.SkippedFiles)
}
