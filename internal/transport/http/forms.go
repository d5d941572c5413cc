package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/dataprocessing"
	apierrors "csvanalyst/internal/errors"
	"csvanalyst/internal/services"
	api "csvanalyst/pkg/contracts/api/v1"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files
const multipartMemory = 8 << 20

// parseUpload parses a multipart body and opens its file field. The returned
// cleanup closes the file and removes any temporary parts; it is never nil.
func parseUpload(r *http.Request) (services.Upload, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return services.Upload{}, cleanup, apierrors.ErrPayloadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return services.Upload{}, cleanup, apierrors.NewWithDetails(http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedMediaType, "Request body must be multipart/form-data", err.Error())
		default:
			return services.Upload{}, cleanup, apierrors.InvalidRequestWithError(err)
		}
	}
	cleanup = func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(api.FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return services.Upload{}, cleanup, apierrors.ErrMissingFile
		}
		return services.Upload{}, cleanup, apierrors.InvalidRequestWithError(err)
	}

	removeParts := cleanup
	cleanup = func() {
		file.Close()
		removeParts()
	}
	return services.Upload{Name: header.Filename, Size: header.Size, Reader: file}, cleanup, nil
}

func formString(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

func formInt(r *http.Request, field string, def int) (int, error) {
	v := formString(r, field)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apierrors.ErrValidation(field, fmt.Sprintf("%s must be a valid integer", field))
	}
	return n, nil
}

// formBool accepts strconv booleans and the "on" an HTML checkbox submits
func formBool(r *http.Request, field string) (bool, error) {
	v := strings.ToLower(formString(r, field))
	switch v {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apierrors.ErrValidation(field, fmt.Sprintf("%s must be a boolean", field))
	}
	return b, nil
}

func preprocessOptionsFromForm(r *http.Request) api.PreprocessOptionsRequest {
	return api.PreprocessOptionsRequest{
		Scaler:       formString(r, api.FieldScaler),
		NumericFill:  formString(r, api.FieldNumericFill),
		IDColumn:     formString(r, api.FieldIDColumn),
		TargetColumn: formString(r, api.FieldTargetColumn),
	}
}

func previewRequestFromForm(r *http.Request) (api.PreviewRequest, error) {
	headerRow, err := formInt(r, api.FieldHeaderRow, 0)
	return api.PreviewRequest{HeaderRow: headerRow}, err
}

func describeRequestFromForm(r *http.Request) (api.DescribeRequest, error) {
	req := api.DescribeRequest{PreprocessOptionsRequest: preprocessOptionsFromForm(r)}
	var err error
	if req.HeaderRow, err = formInt(r, api.FieldHeaderRow, 0); err != nil {
		return req, err
	}
	if req.Preprocess, err = formBool(r, api.FieldPreprocess); err != nil {
		return req, err
	}
	req.All, err = formBool(r, api.FieldAll)
	return req, err
}

func preprocessRequestFromForm(r *http.Request) (api.PreprocessRequest, error) {
	req := api.PreprocessRequest{PreprocessOptionsRequest: preprocessOptionsFromForm(r)}
	var err error
	req.HeaderRow, err = formInt(r, api.FieldHeaderRow, 0)
	return req, err
}

// runConfigFromForm reads the run selections. Values are checked later by
// the service's struct validation.
func runConfigFromForm(r *http.Request) (analysis.RunConfig, error) {
	cfg := analysis.RunConfig{
		Analysis:     analysis.Type(formString(r, api.FieldAnalysis)),
		Task:         analysis.Task(formString(r, api.FieldTask)),
		Model:        analysis.Model(formString(r, api.FieldModel)),
		TargetColumn: formString(r, api.FieldTargetColumn),
		IDColumn:     formString(r, api.FieldIDColumn),
		Scaler:       formString(r, api.FieldScaler),
		NumericFill:  formString(r, api.FieldNumericFill),
		ClusterModel: analysis.ClusterModel(formString(r, api.FieldClusterModel)),
	}

	var err error
	if cfg.HeaderRow, err = formInt(r, api.FieldHeaderRow, 0); err != nil {
		return cfg, err
	}
	if cfg.PCAComponents, err = formInt(r, api.FieldPCAComponents, 0); err != nil {
		return cfg, err
	}
	cfg.Preprocess, err = formBool(r, api.FieldPreprocess)
	return cfg, err
}

func toPreprocessOptions(req api.PreprocessOptionsRequest) dataprocessing.PreprocessOptions {
	return dataprocessing.PreprocessOptions{
		Scaler:       dataprocessing.Scaler(req.Scaler),
		NumericFill:  dataprocessing.FillStrategy(req.NumericFill),
		IDColumn:     req.IDColumn,
		TargetColumn: req.TargetColumn,
	}
}
