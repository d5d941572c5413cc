package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeUnprocessable        = "UNPROCESSABLE_DATASET"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeInternal             = "INTERNAL_SERVER_ERROR"
	CodeRunnerFailed         = "ANALYSIS_RUNNER_FAILED"
	CodeRunnerUnavailable    = "ANALYSIS_RUNNER_UNAVAILABLE"
	CodeTimeout              = "ANALYSIS_TIMEOUT"
)

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")
	ErrMissingFile      = New(http.StatusBadRequest, CodeInvalidRequest, "A CSV file is required in the 'file' form field")

	// 404 Not Found
	ErrNotFound = New(http.StatusNotFound, CodeNotFound, "Resource not found")

	// 413 / 415
	ErrPayloadTooLarge      = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Uploaded file exceeds the maximum allowed size")
	ErrUnsupportedMediaType = New(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, "Only CSV files are accepted")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, CodeInternal, "Internal server error")

	// 503 Service Unavailable
	ErrRunnerUnavailable = New(http.StatusServiceUnavailable, CodeRunnerUnavailable, "No analysis runner is configured on this server")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// UnprocessableDataset reports a file that was accepted but could not be read as a table
func UnprocessableDataset(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeUnprocessable, "The uploaded file could not be processed", err.Error())
}

// RunnerFailed reports a failure of the external analysis entry point
func RunnerFailed(err error) *APIError {
	return NewWithDetails(http.StatusBadGateway, CodeRunnerFailed, "The analysis failed", err.Error())
}

// RunnerTimeout reports an analysis that exceeded its time limit
func RunnerTimeout(err error) *APIError {
	return NewWithDetails(http.StatusGatewayTimeout, CodeTimeout, "The analysis did not finish in time", err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
