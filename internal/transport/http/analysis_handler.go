package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "csvanalyst/internal/errors"
	"csvanalyst/internal/exporter"
	mw "csvanalyst/internal/middleware"
	"csvanalyst/internal/services"
	"csvanalyst/internal/validation"
	api "csvanalyst/pkg/contracts/api/v1"
)

// AnalysisHandler serves the dataset and analysis API
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *validation.StructValidator
	query        *mw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validator *validation.StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if validator == nil {
		validator = validation.NewStructValidator()
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		query:        mw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the v1 API routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/analysis/options", h.GetOptions)

	r.Group(func(r chi.Router) {
		r.Use(mw.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
		r.Post("/datasets/preview", h.Preview)
		r.Post("/datasets/describe", h.Describe)
		r.Post("/datasets/preprocess", h.Preprocess)
		r.Post("/analysis/run", h.Run)
	})

	return r
}

// GetOptions handles GET /api/v1/analysis/options
func (h *AnalysisHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Success(map[string]interface{}{
		"catalogue":         h.service.Options(),
		"runner_configured": h.service.RunnerConfigured(),
	}))
}

// Preview handles POST /api/v1/datasets/preview
func (h *AnalysisHandler) Preview(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := parseUpload(r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, "preview", err)
		return
	}

	req, err := previewRequestFromForm(r)
	if err == nil {
		err = h.validator.Struct(req)
	}
	if err != nil {
		h.fail(w, r, "preview", err)
		return
	}

	result, err := h.service.Preview(r.Context(), upload, req.HeaderRow)
	if err != nil {
		h.fail(w, r, "preview", err)
		return
	}

	render.JSON(w, r, api.Success(result))
}

// Describe handles POST /api/v1/datasets/describe. ?format=csv|xlsx
// downloads the describe table instead of returning JSON.
func (h *AnalysisHandler) Describe(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", api.Formats, api.FormatJSON)
	if !ok {
		return
	}

	upload, cleanup, err := parseUpload(r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, "describe", err)
		return
	}

	req, err := describeRequestFromForm(r)
	if err == nil {
		err = h.validator.Struct(req)
	}
	if err != nil {
		h.fail(w, r, "describe", err)
		return
	}

	svcReq := services.DescribeRequest{HeaderRow: req.HeaderRow, All: req.All}
	if req.Preprocess {
		opts := toPreprocessOptions(req.PreprocessOptionsRequest)
		svcReq.Preprocess = &opts
	}

	result, err := h.service.Describe(r.Context(), upload, svcReq)
	if err != nil {
		h.fail(w, r, "describe", err)
		return
	}

	name := downloadName(upload.Name, "describe")
	switch format {
	case api.FormatCSV:
		headers, records := exporter.DescribeGrid(result.Description)
		h.writeCSV(w, r, name, headers, records)
	case api.FormatXLSX:
		h.writeXLSX(w, r, name, exporter.DescribeSheets(result.Description)...)
	default:
		render.JSON(w, r, api.Success(result))
	}
}

// Preprocess handles POST /api/v1/datasets/preprocess. ?format=csv|xlsx
// downloads the processed table.
func (h *AnalysisHandler) Preprocess(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", api.Formats, api.FormatJSON)
	if !ok {
		return
	}

	upload, cleanup, err := parseUpload(r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, "preprocess", err)
		return
	}

	req, err := preprocessRequestFromForm(r)
	if err == nil {
		err = h.validator.Struct(req)
	}
	if err != nil {
		h.fail(w, r, "preprocess", err)
		return
	}

	result, err := h.service.Preprocess(r.Context(), upload, services.PreprocessRequest{
		HeaderRow: req.HeaderRow,
		Options:   toPreprocessOptions(req.PreprocessOptionsRequest),
	})
	if err != nil {
		h.fail(w, r, "preprocess", err)
		return
	}

	name := downloadName(upload.Name, "processed")
	switch format {
	case api.FormatCSV:
		h.writeCSV(w, r, name, result.Table.Columns(), result.Table.Records())
	case api.FormatXLSX:
		h.writeXLSX(w, r, name, exporter.ProcessedSheets(result.Table, result.Report)...)
	default:
		rows, _ := result.Table.Shape()
		render.JSON(w, r, api.Success(map[string]interface{}{
			"rows":    rows,
			"columns": result.Table.Columns(),
			"records": result.Table.Records(),
			"report":  result.Report,
		}))
	}
}

// Run handles POST /api/v1/analysis/run
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := parseUpload(r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, "run", err)
		return
	}

	cfg, err := runConfigFromForm(r)
	if err != nil {
		h.fail(w, r, "run", err)
		return
	}

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", upload.Name),
		slog.String("analysis", string(cfg.Analysis)),
		slog.Bool("preprocess", cfg.Preprocess))

	result, err := h.service.Run(r.Context(), upload, cfg)
	if err != nil {
		h.fail(w, r, "run", err)
		return
	}

	render.JSON(w, r, api.Success(result))
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.DebugContext(r.Context(), "dataset request failed",
		slog.String("operation", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

func (h *AnalysisHandler) writeCSV(w http.ResponseWriter, r *http.Request, name string, headers []string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(name+".csv"))
	if err := exporter.Encode(w, exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream csv download",
			slog.String("error", err.Error()))
	}
}

func (h *AnalysisHandler) writeXLSX(w http.ResponseWriter, r *http.Request, name string, sheets ...exporter.Sheet) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(name+".xlsx"))
	if err := exporter.WriteXLSX(w, sheets...); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream xlsx download",
			slog.String("error", err.Error()))
	}
}

// downloadName derives a download file name from the uploaded one
func downloadName(upload, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(upload), filepath.Ext(upload))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "dataset"
	}
	return fmt.Sprintf("%s_%s", base, suffix)
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
