package services

import "errors"

// Analysis service errors
var (
	// ErrMissingUpload is returned when a request carries no dataset
	ErrMissingUpload = errors.New("no CSV file was uploaded")

	// ErrInvalidInput wraps malformed request values such as header_row
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable reports a dependency the service cannot reach
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
