package http

import (
	"context"
	"errors"
	"net/http"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/dataprocessing"
	apierrors "csvanalyst/internal/errors"
	"csvanalyst/internal/runner"
	"csvanalyst/internal/services"
	"csvanalyst/internal/validation"
)

// datasetErrors are failures caused by the content of an otherwise valid upload
var datasetErrors = []error{
	validation.ErrEmptyUpload,
	dataprocessing.ErrEmptyFile,
	dataprocessing.ErrHeaderRowOutOfRange,
	dataprocessing.ErrRaggedRow,
	dataprocessing.ErrColumnNotFound,
	dataprocessing.ErrNotNumeric,
	dataprocessing.ErrUnknownScaler,
	dataprocessing.ErrUnknownFillStrategy,
	analysis.ErrUnknownColumn,
	analysis.ErrTooManyComponents,
	analysis.ErrNoFeatureColumns,
}

// toAPIError maps service errors onto API errors. Errors it does not know are
// returned unchanged and end up as 500 responses.
func toAPIError(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make([]apierrors.ValidationError, len(verrs))
		for i, fe := range verrs {
			fields[i] = apierrors.ValidationError{Field: fe.Field, Message: fe.Message}
		}
		return apierrors.NewValidationErrors(fields)
	}

	switch {
	case errors.Is(err, services.ErrMissingUpload):
		return apierrors.ErrMissingFile
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, validation.ErrUploadTooLarge):
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.CodePayloadTooLarge,
			apierrors.ErrPayloadTooLarge.Message, err.Error())
	case errors.Is(err, validation.ErrUnsupportedType):
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.CodeUnsupportedMediaType,
			apierrors.ErrUnsupportedMediaType.Message, err.Error())
	case errors.Is(err, runner.ErrRunnerNotConfigured):
		return apierrors.ErrRunnerUnavailable
	case errors.Is(err, services.ErrServiceUnavailable):
		return apierrors.NewWithDetails(http.StatusServiceUnavailable, apierrors.CodeRunnerUnavailable,
			"The analysis service is temporarily unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.RunnerTimeout(err)
	case errors.Is(err, runner.ErrRunnerFailed):
		return apierrors.RunnerFailed(err)
	}

	for _, target := range datasetErrors {
		if errors.Is(err, target) {
			return apierrors.UnprocessableDataset(err)
		}
	}
	return err
}

// userMessage is the text the HTML form shows for err. Errors the service
// knows about are shown as they are; anything else gets a generic message.
func userMessage(err error) string {
	var apiErr *apierrors.APIError
	if errors.As(toAPIError(err), &apiErr) {
		return err.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled"
	}
	return "An unexpected error occurred while processing the file"
}
