package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/config"
	"csvanalyst/internal/dataprocessing"
	"csvanalyst/internal/exporter"
	"csvanalyst/internal/files"
	"csvanalyst/internal/services"
	"csvanalyst/pkg/contracts"
	api "csvanalyst/pkg/contracts/api/v1"
)

// outputOptions selects where and how a command writes its result
type outputOptions struct {
	path   string
	format string
}

func (o *outputOptions) register(cmd *cobra.Command, withFormat bool) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "write to this file instead of stdout")
	o.format = api.FormatJSON
	if withFormat {
		cmd.Flags().StringVarP(&o.format, "format", "f", api.FormatJSON, "output format: "+strings.Join(api.Formats, ", "))
	}
}

func (o *outputOptions) validate() error {
	if !slices.Contains(api.Formats, o.format) {
		return fmt.Errorf("unsupported --format %q (use %s)", o.format, strings.Join(api.Formats, ", "))
	}
	return nil
}

// write opens the destination and hands it to fn
func (o *outputOptions) write(cmd *cobra.Command, fn func(io.Writer) error) error {
	if o.path == "" {
		return fn(cmd.OutOrStdout())
	}

	f, err := os.Create(o.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", o.path)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preprocessFlags are the preprocessing selections shared by several commands
type preprocessFlags struct {
	idColumn     string
	targetColumn string
	scaler       string
	numericFill  string
}

func (p *preprocessFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.idColumn, "id-column", "", "column left untouched by preprocessing")
	cmd.Flags().StringVar(&p.targetColumn, "target", "", "target column: encoded and filled, never scaled")
	cmd.Flags().StringVar(&p.scaler, "scaler", "", "feature scaling: none, standard, minmax or robust")
	cmd.Flags().StringVar(&p.numericFill, "numeric-fill", "", "missing numeric values: mean, median or mode")
}

func (p *preprocessFlags) request() api.PreprocessOptionsRequest {
	return api.PreprocessOptionsRequest{
		Scaler:       p.scaler,
		NumericFill:  p.numericFill,
		IDColumn:     p.idColumn,
		TargetColumn: p.targetColumn,
	}
}

func toPreprocessOptions(req api.PreprocessOptionsRequest) dataprocessing.PreprocessOptions {
	return dataprocessing.PreprocessOptions{
		Scaler:       dataprocessing.Scaler(req.Scaler),
		NumericFill:  dataprocessing.FillStrategy(req.NumericFill),
		IDColumn:     req.IDColumn,
		TargetColumn: req.TargetColumn,
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		headerRow int
		out       outputOptions
	)

	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Show the row count, column kinds and first rows of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			req := api.PreviewRequest{HeaderRow: headerRow}
			if err := s.services.Structs.Struct(req); err != nil {
				return err
			}

			upload, cleanup, err := s.openUpload(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := s.services.Analysis.Preview(cmd.Context(), upload, req.HeaderRow)
			if err != nil {
				return err
			}
			return out.write(cmd, func(w io.Writer) error { return writeJSON(w, result) })
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", 0, "zero-based row holding the column names")
	out.register(cmd, false)
	return cmd
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	var (
		req api.DescribeRequest
		pre preprocessFlags
		out outputOptions
	)

	cmd := &cobra.Command{
		Use:   "describe <file.csv>",
		Short: "Summarise every column like pandas describe",
		Example: `  analyze describe data.csv
  analyze describe data.csv --all --format xlsx -o summary.xlsx
  analyze describe data.csv --preprocess --scaler standard --id-column id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			req.PreprocessOptionsRequest = pre.request()
			if err := s.services.Structs.Struct(req); err != nil {
				return err
			}

			upload, cleanup, err := s.openUpload(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			svcReq := services.DescribeRequest{HeaderRow: req.HeaderRow, All: req.All}
			if req.Preprocess {
				o := toPreprocessOptions(req.PreprocessOptionsRequest)
				svcReq.Preprocess = &o
			}

			result, err := s.services.Analysis.Describe(cmd.Context(), upload, svcReq)
			if err != nil {
				return err
			}

			return out.write(cmd, func(w io.Writer) error {
				switch out.format {
				case api.FormatCSV:
					headers, records := exporter.DescribeGrid(result.Description)
					return exporter.Encode(w, exporter.WriteOptions{Headers: headers, Records: records})
				case api.FormatXLSX:
					return exporter.WriteXLSX(w, exporter.DescribeSheets(result.Description)...)
				default:
					return writeJSON(w, result)
				}
			})
		},
	}

	cmd.Flags().IntVar(&req.HeaderRow, "header-row", 0, "zero-based row holding the column names")
	cmd.Flags().BoolVar(&req.Preprocess, "preprocess", false, "preprocess before describing")
	cmd.Flags().BoolVar(&req.All, "all", false, "include categorical columns")
	pre.register(cmd)
	out.register(cmd, true)
	return cmd
}

func newPreprocessCmd(opts *rootOptions) *cobra.Command {
	var (
		req api.PreprocessRequest
		pre preprocessFlags
		out outputOptions
	)

	cmd := &cobra.Command{
		Use:   "preprocess <file.csv>",
		Short: "Encode, fill and scale a dataset",
		Example: `  analyze preprocess data.csv --scaler minmax --format csv -o processed.csv
  analyze preprocess data.csv --id-column id --target label --format xlsx -o processed.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			req.PreprocessOptionsRequest = pre.request()
			if err := s.services.Structs.Struct(req); err != nil {
				return err
			}

			upload, cleanup, err := s.openUpload(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := s.services.Analysis.Preprocess(cmd.Context(), upload, services.PreprocessRequest{
				HeaderRow: req.HeaderRow,
				Options:   toPreprocessOptions(req.PreprocessOptionsRequest),
			})
			if err != nil {
				return err
			}
			for _, warning := range result.Report.Warnings {
				s.logger.Warn("preprocessing warning", slog.String("warning", warning))
			}

			return out.write(cmd, func(w io.Writer) error {
				switch out.format {
				case api.FormatCSV:
					return exporter.Encode(w, exporter.WriteOptions{Headers: result.Table.Columns(), Records: result.Table.Records()})
				case api.FormatXLSX:
					return exporter.WriteXLSX(w, exporter.ProcessedSheets(result.Table, result.Report)...)
				default:
					rows, _ := result.Table.Shape()
					return writeJSON(w, map[string]interface{}{
						"rows":    rows,
						"columns": result.Table.Columns(),
						"records": result.Table.Records(),
						"report":  result.Report,
					})
				}
			})
		},
	}

	cmd.Flags().IntVar(&req.HeaderRow, "header-row", 0, "zero-based row holding the column names")
	pre.register(cmd)
	out.register(cmd, true)
	return cmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		cfg          analysis.RunConfig
		analysisType string
		task         string
		model        string
		clusterModel string
		out          outputOptions
	)

	cmd := &cobra.Command{
		Use:   "run <file.csv>",
		Short: "Run an analysis the way the web form does",
		Example: `  analyze run data.csv --analysis statistical --preprocess
  analyze run data.csv --analysis machine_learning --task classification --model random_forest --target label
  analyze run data.csv --analysis clustering --cluster-model kmeans
  analyze run data.csv --analysis pca --pca-components 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg.Analysis = analysis.Type(analysisType)
			cfg.Task = analysis.Task(task)
			cfg.Model = analysis.Model(model)
			cfg.ClusterModel = analysis.ClusterModel(clusterModel)

			upload, cleanup, err := s.openUpload(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			s.logger.Debug("analysis requested",
				slog.String("file", upload.Name),
				slog.String("analysis", analysisType),
				slog.Bool("preprocess", cfg.Preprocess))

			result, err := s.services.Analysis.Run(cmd.Context(), upload, cfg)
			if err != nil {
				return err
			}
			for _, line := range result.Selections {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
			return out.write(cmd, func(w io.Writer) error { return writeJSON(w, result) })
		},
	}

	f := cmd.Flags()
	f.StringVarP(&analysisType, "analysis", "a", string(analysis.TypeStatistical), "none, statistical, machine_learning, clustering or pca")
	f.StringVar(&task, "task", "", "machine learning task: classification or regression")
	f.StringVar(&model, "model", "", "machine learning model, see GET /api/v1/analysis/options")
	f.StringVar(&cfg.TargetColumn, "target", "", "target column for machine learning")
	f.StringVar(&cfg.IDColumn, "id-column", "", "column left untouched by preprocessing")
	f.StringVar(&cfg.Scaler, "scaler", "", "feature scaling: none, standard, minmax or robust")
	f.StringVar(&cfg.NumericFill, "numeric-fill", "", "missing numeric values: mean, median or mode")
	f.StringVar(&clusterModel, "cluster-model", "", "clustering model: kmeans or dbscan")
	f.IntVar(&cfg.PCAComponents, "pca-components", 0, "number of PCA components")
	f.IntVar(&cfg.HeaderRow, "header-row", 0, "zero-based row holding the column names")
	f.BoolVar(&cfg.Preprocess, "preprocess", false, "preprocess before analysing")
	out.register(cmd, false)
	return cmd
}

func newCleanCmd(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete stale run-*.csv working files from the work directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			maxAge := s.cfg.Analysis.WorkFileTTL
			if cmd.Flags().Changed("older-than") {
				maxAge = olderThan
			}

			result, err := files.NewSweeper(s.cfg.Paths.WorkDir, maxAge, s.logger).Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d working files (%d bytes) from %s\n",
				len(result.Removed), result.Bytes, s.cfg.Paths.WorkDir)
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "minimum age of files to delete (default: the configured work file TTL)")
	return cmd
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables the configuration reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), contracts.GetVersionInfo())
			}
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString(config.AppName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print build details as JSON")
	return cmd
}
