package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvanalyst/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "validation",
			err:        ErrValidation("scaler", "scaler must be one of: none, standard"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "payload too large",
			err:        ErrPayloadTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   CodePayloadTooLarge,
		},
		{
			name:       "unsupported media type",
			err:        ErrUnsupportedMediaType,
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedMedia,
			wantCode:   CodeUnsupportedMediaType,
		},
		{
			name:       "unprocessable dataset",
			err:        UnprocessableDataset(fmt.Errorf("bad csv")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetUnprocessable,
			wantCode:   CodeUnprocessable,
		},
		{
			name:       "runner unavailable",
			err:        ErrRunnerUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeRunnerUnavailable,
			wantCode:   CodeRunnerUnavailable,
		},
		{
			name:       "runner failed",
			err:        RunnerFailed(fmt.Errorf("exit status 1")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeRunnerFailed,
			wantCode:   CodeRunnerFailed,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("handler: %w", ErrMissingFile),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "context deadline",
			err:        fmt.Errorf("run: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/analysis/run", body["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Empty(t, logs.Records())
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	err := NewValidationErrors([]ValidationError{
		{Field: "model", Message: "model is required"},
		{Field: "target_column", Message: "target_column is required"},
	})

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", nil), err)

	body := decodeProblem(t, rec)
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	errs, ok := details["errors"].([]interface{})
	require.True(t, ok)
	assert.Len(t, errs, 2)
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/boom", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	assert.NotEmpty(t, body["stack"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc", body["trace_id"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"], "standard members win over extensions")
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}
