package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"csvanalyst/internal/analysis"
	apierrors "csvanalyst/internal/errors"
	"csvanalyst/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"analysisLabel": analysis.AnalysisLabel}).
	ParseFS(templateFS, "templates/index.html"))

const pageTitle = "CSV Analyst: Data Analysis and Machine Learning"

// grid is a table rendered on the page
type grid struct {
	Headers []string
	Rows    [][]string
}

// formPage is the data the page template renders
type formPage struct {
	Title            string
	Catalogue        analysis.Catalogue
	RunnerConfigured bool
	Config           analysis.RunConfig
	FileName         string
	Result           *services.RunResult
	Numeric          *grid
	Categorical      *grid
	Output           string
	Error            string
}

// FormHandler serves the single-page HTML form
type FormHandler struct {
	service AnalysisServiceInterface
	logger  *slog.Logger
}

// NewFormHandler creates a new form handler
func NewFormHandler(service AnalysisServiceInterface, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		service: service,
		logger:  logger.With(slog.String("component", "form_handler")),
	}
}

// Show handles GET /
func (h *FormHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.page(analysis.RunConfig{}.WithDefaults()))
}

// Submit handles POST /. Every outcome, failures included, is rendered on
// the page itself.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := parseUpload(r)
	defer cleanup()

	cfg, cfgErr := runConfigFromForm(r)
	page := h.page(cfg.WithDefaults())
	page.FileName = upload.Name

	if err == nil {
		err = cfgErr
	}
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	result, err := h.service.Run(r.Context(), upload, cfg)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	page.Config = result.Config
	page.Result = result
	if d := result.Description; d != nil {
		if len(d.Numeric) > 0 {
			headers, rows := d.NumericGrid()
			page.Numeric = &grid{Headers: headers, Rows: rows}
		}
		if len(d.Categorical) > 0 {
			headers, rows := d.CategoricalGrid()
			page.Categorical = &grid{Headers: headers, Rows: rows}
		}
	}
	if out := result.Output; out != nil {
		page.Output = out.Text
		if len(out.Data) > 0 {
			var buf bytes.Buffer
			if json.Indent(&buf, out.Data, "", "  ") == nil {
				page.Output = buf.String()
			} else {
				page.Output = string(out.Data)
			}
		}
	}

	h.render(w, r, http.StatusOK, page)
}

func (h *FormHandler) page(cfg analysis.RunConfig) formPage {
	return formPage{
		Title:            pageTitle,
		Catalogue:        h.service.Options(),
		RunnerConfigured: h.service.RunnerConfigured(),
		Config:           cfg,
	}
}

func (h *FormHandler) renderError(w http.ResponseWriter, r *http.Request, page formPage, err error) {
	status := http.StatusInternalServerError
	var apiErr *apierrors.APIError
	if errors.As(toAPIError(err), &apiErr) {
		status = apiErr.StatusCode
	}

	if errors.As(err, &apiErr) {
		page.Error = apiErrorMessage(apiErr)
	} else {
		page.Error = userMessage(err)
	}

	h.logger.WarnContext(r.Context(), "form submission failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	h.render(w, r, status, page)
}

// apiErrorMessage prefers field-level validation messages over the generic
// summary
func apiErrorMessage(apiErr *apierrors.APIError) string {
	switch d := apiErr.Details.(type) {
	case apierrors.ValidationError:
		if d.Message != "" {
			return d.Message
		}
	case apierrors.ValidationErrors:
		msgs := make([]string, 0, len(d.Errors))
		for _, e := range d.Errors {
			msgs = append(msgs, e.Message)
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return apiErr.Message
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
