package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/dataprocessing"
	"csvanalyst/internal/exporter"
	"csvanalyst/internal/infrastructure"
	"csvanalyst/internal/runner"
	"csvanalyst/internal/validation"
)

const defaultPreviewRows = 5

// Upload is a dataset handed to the service. Size is the declared size in
// bytes; 0 means unknown and is checked while reading.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// ColumnInfo names a column and its inferred kind
type ColumnInfo struct {
	Name string                    `json:"name"`
	Kind dataprocessing.ColumnKind `json:"kind"`
}

// PreviewResult is the first look at an uploaded table
type PreviewResult struct {
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Head    [][]string   `json:"head"`
}

// DescribeRequest selects what Describe summarises
type DescribeRequest struct {
	HeaderRow int
	// Preprocess, when set, is applied before summarising
	Preprocess *dataprocessing.PreprocessOptions
	// All summarises numeric and categorical columns together
	All bool
}

// DescribeResult is a describe table plus the preprocessing report when
// preprocessing ran first
type DescribeResult struct {
	Description *dataprocessing.Description `json:"description"`
	Report      *dataprocessing.Report      `json:"report,omitempty"`
}

// PreprocessRequest configures Preprocess
type PreprocessRequest struct {
	HeaderRow int
	Options   dataprocessing.PreprocessOptions
}

// PreprocessResult is a processed table with its report
type PreprocessResult struct {
	Table  *dataprocessing.Table  `json:"-"`
	Report *dataprocessing.Report `json:"report"`
}

// RunResult collects everything a run shows the user
type RunResult struct {
	Config      analysis.RunConfig          `json:"config"`
	Preview     *PreviewResult              `json:"preview"`
	Selections  []string                    `json:"selections,omitempty"`
	Report      *dataprocessing.Report      `json:"report,omitempty"`
	Description *dataprocessing.Description `json:"description,omitempty"`
	Output      *runner.Result              `json:"output,omitempty"`
	Duration    time.Duration               `json:"duration_ns"`
}

// AnalysisServiceConfig wires an AnalysisService
type AnalysisServiceConfig struct {
	Files         *validation.FileValidator
	Structs       *validation.StructValidator
	Writer        *exporter.CSVWriter
	Runner        runner.Runner
	Metrics       *infrastructure.Metrics
	Tracer        trace.Tracer
	PreviewRows   int
	KeepWorkFiles bool
}

// AnalysisService runs the upload, preprocess and analysis pipeline. It
// holds no per-request state and is safe for concurrent use.
type AnalysisService struct {
	files         *validation.FileValidator
	structs       *validation.StructValidator
	writer        *exporter.CSVWriter
	runner        runner.Runner
	metrics       *infrastructure.Metrics
	tracer        trace.Tracer
	previewRows   int
	keepWorkFiles bool
	logger        *slog.Logger
}

// NewAnalysisService creates an analysis service. Missing collaborators get
// permissive defaults: no size limit, no runner, a no-op tracer.
func NewAnalysisService(cfg AnalysisServiceConfig, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Files == nil {
		cfg.Files = validation.NewFileValidator(logger, 0)
	}
	if cfg.Structs == nil {
		cfg.Structs = validation.NewStructValidator()
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.UnconfiguredRunner{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = defaultPreviewRows
	}

	return &AnalysisService{
		files:         cfg.Files,
		structs:       cfg.Structs,
		writer:        cfg.Writer,
		runner:        cfg.Runner,
		metrics:       cfg.Metrics,
		tracer:        cfg.Tracer,
		previewRows:   cfg.PreviewRows,
		keepWorkFiles: cfg.KeepWorkFiles,
		logger:        logger.With(slog.String("component", "analysis_service")),
	}
}

// Options returns the catalogue that drives the form widgets
func (s *AnalysisService) Options() analysis.Catalogue {
	return analysis.Options()
}

// RunnerConfigured reports whether delegated analyses can run
func (s *AnalysisService) RunnerConfigured() bool {
	return s.runner.Configured()
}

// Preview loads the upload and returns its shape, column kinds and first rows
func (s *AnalysisService) Preview(ctx context.Context, upload Upload, headerRow int) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.preview")
	defer span.End()

	table, err := s.load(ctx, upload, headerRow)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return s.preview(table), nil
}

// Describe summarises the upload, optionally after preprocessing it
func (s *AnalysisService) Describe(ctx context.Context, upload Upload, req DescribeRequest) (*DescribeResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.describe", trace.WithAttributes(
		attribute.Bool("preprocess", req.Preprocess != nil),
		attribute.Bool("all", req.All),
	))
	defer span.End()

	table, err := s.load(ctx, upload, req.HeaderRow)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	result := &DescribeResult{}
	if req.Preprocess != nil {
		table, result.Report, err = s.preprocess(ctx, table, *req.Preprocess)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
	}

	if req.All {
		result.Description, err = dataprocessing.DescribeAll(ctx, table)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return nil, err
		}
	} else {
		result.Description = dataprocessing.Describe(table)
	}

	s.logger.InfoContext(ctx, "dataset described",
		slog.String("file", upload.Name),
		slog.Int("numeric_columns", len(result.Description.Numeric)),
		slog.Int("categorical_columns", len(result.Description.Categorical)))
	return result, nil
}

// Preprocess encodes, fills and scales the upload
func (s *AnalysisService) Preprocess(ctx context.Context, upload Upload, req PreprocessRequest) (*PreprocessResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.preprocess_request")
	defer span.End()

	table, err := s.load(ctx, upload, req.HeaderRow)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	processed, report, err := s.preprocess(ctx, table, req.Options)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return &PreprocessResult{Table: processed, Report: report}, nil
}

// Run validates cfg, loads the upload and carries out the selected analysis.
// none previews, statistical describes, and the remaining analyses write a
// working file and hand it to the runner.
func (s *AnalysisService) Run(ctx context.Context, upload Upload, cfg analysis.RunConfig) (result *RunResult, err error) {
	cfg = cfg.WithDefaults()
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("analysis.type", string(cfg.Analysis)),
		attribute.Bool("analysis.preprocess", cfg.Preprocess),
	))
	defer span.End()

	defer func() {
		s.metrics.RecordRun(ctx, string(cfg.Analysis), time.Since(start), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
	}()

	if err := s.structs.Struct(cfg); err != nil {
		return nil, err
	}
	if cfg.Analysis.Delegated() && !s.runner.Configured() {
		return nil, fmt.Errorf("%s analysis: %w", cfg.Analysis, runner.ErrRunnerNotConfigured)
	}

	table, err := s.load(ctx, upload, cfg.HeaderRow)
	if err != nil {
		return nil, err
	}

	result = &RunResult{
		Config:     cfg,
		Preview:    s.preview(table),
		Selections: cfg.Selections(),
	}

	working := table
	if cfg.Preprocess {
		working, result.Report, err = s.preprocess(ctx, table, preprocessOptions(cfg))
		if err != nil {
			return nil, err
		}
	}

	switch {
	case cfg.Analysis == analysis.TypeStatistical:
		result.Description = dataprocessing.Describe(working)
	case cfg.Analysis.Delegated():
		if err := cfg.CheckColumns(working.Columns()); err != nil {
			return nil, err
		}
		result.Output, err = s.delegate(ctx, working, cfg)
		if err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	s.logger.InfoContext(ctx, "analysis run completed",
		slog.String("file", upload.Name),
		slog.String("analysis", string(cfg.Analysis)),
		slog.Bool("preprocess", cfg.Preprocess),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// delegate writes the working file and invokes the runner with it
func (s *AnalysisService) delegate(ctx context.Context, table *dataprocessing.Table, cfg analysis.RunConfig) (*runner.Result, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("%w: no work directory configured", ErrServiceUnavailable)
	}

	path, err := s.writer.WriteWorkingFile(table.Columns(), table.Records())
	if err != nil {
		return nil, err
	}
	if !s.keepWorkFiles {
		defer func() {
			if err := s.writer.Remove(path); err != nil {
				s.logger.WarnContext(ctx, "failed to remove working file",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}()
	}

	infrastructure.AddSpanEvent(ctx, "working_file.written", attribute.String("path", path))

	res, err := s.runner.Run(ctx, runner.Request{
		DataPath:  path,
		HeaderRow: 0,
		Config:    cfg,
	})
	if err != nil {
		s.metrics.RecordRunnerFailure(ctx, string(cfg.Analysis), failureReason(err))
		return nil, err
	}
	return res, nil
}

// load validates and parses an upload. Reads are capped one byte past the
// size limit so an undeclared oversized body is still rejected.
func (s *AnalysisService) load(ctx context.Context, upload Upload, headerRow int) (*dataprocessing.Table, error) {
	if upload.Reader == nil {
		return nil, ErrMissingUpload
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("%w: header_row must be >= 0, got %d", ErrInvalidInput, headerRow)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var src io.Reader = upload.Reader
	limit := s.files.MaxBytes()
	var counter *countingReader
	if limit > 0 {
		counter = &countingReader{r: io.LimitReader(src, limit+1)}
		src = counter
	}

	br := bufio.NewReaderSize(src, validation.SniffLen())
	head, err := br.Peek(validation.SniffLen())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	size := upload.Size
	if size <= 0 {
		size = int64(len(head))
	}
	if err := s.files.ValidateUpload(upload.Name, size, head); err != nil {
		s.metrics.RecordUpload(ctx, size, false)
		return nil, err
	}

	table, err := dataprocessing.LoadCSV(br, dataprocessing.LoadOptions{HeaderRow: headerRow})
	if counter != nil && counter.n > limit {
		s.metrics.RecordUpload(ctx, counter.n, false)
		return nil, fmt.Errorf("%w: %q is larger than %d bytes", validation.ErrUploadTooLarge, upload.Name, limit)
	}
	if err != nil {
		s.metrics.RecordUpload(ctx, size, false)
		return nil, err
	}

	rows, cols := table.Shape()
	s.metrics.RecordUpload(ctx, size, true)
	s.logger.DebugContext(ctx, "dataset loaded",
		slog.String("file", upload.Name),
		slog.Int("header_row", headerRow),
		slog.Int("rows", rows),
		slog.Int("columns", cols))
	return table, nil
}

func (s *AnalysisService) preprocess(ctx context.Context, table *dataprocessing.Table, opts dataprocessing.PreprocessOptions) (*dataprocessing.Table, *dataprocessing.Report, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.preprocess", trace.WithAttributes(
		attribute.String("scaler", string(opts.Scaler)),
		attribute.String("numeric_fill", string(opts.NumericFill)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	processed, report, err := dataprocessing.Preprocess(table, opts)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordPreprocess(ctx, string(opts.Scaler), time.Since(start))

	for _, w := range report.Warnings {
		s.logger.WarnContext(ctx, "preprocessing warning", slog.String("warning", w))
	}
	return processed, report, nil
}

func (s *AnalysisService) preview(table *dataprocessing.Table) *PreviewResult {
	rows, _ := table.Shape()
	kinds := table.Kinds()
	cols := table.Columns()

	info := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		info[i] = ColumnInfo{Name: c, Kind: kinds[c]}
	}
	return &PreviewResult{
		Rows:    rows,
		Columns: info,
		Head:    table.Head(s.previewRows),
	}
}

func preprocessOptions(cfg analysis.RunConfig) dataprocessing.PreprocessOptions {
	return dataprocessing.PreprocessOptions{
		Scaler:       dataprocessing.Scaler(cfg.Scaler),
		NumericFill:  dataprocessing.FillStrategy(cfg.NumericFill),
		IDColumn:     cfg.IDColumn,
		TargetColumn: cfg.TargetColumn,
	}
}

func failureReason(err error) string {
	var rerr *runner.RunError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rerr) && rerr.ExitCode > 0:
		return "exit_status"
	default:
		return "error"
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
