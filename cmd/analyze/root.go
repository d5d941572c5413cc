package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"csvanalyst/internal/app"
	"csvanalyst/internal/config"
	"csvanalyst/internal/infrastructure"
	"csvanalyst/internal/services"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configFile string
	envFiles   []string
	verbose    bool
}

// session is what a data command needs once configuration is loaded
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	services *app.ServiceContainer
	logFile  *os.File
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Preview, describe, preprocess and analyse CSV datasets",
		Long: `analyze runs the same pipeline as the web form against a local CSV file.

Configuration comes from defaults, an optional YAML file and CSVA_*
environment variables; run "analyze env" to list them. Delegated analyses
(machine_learning, clustering, pca) need CSVA_ANALYSIS_RUNNER_COMMAND.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (default: config.yaml or configs/config.yaml if present)")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newPreviewCmd(opts),
		newDescribeCmd(opts),
		newPreprocessCmd(opts),
		newRunCmd(opts),
		newCleanCmd(opts),
		newEnvCmd(),
		newVersionCmd(),
	)

	return cmd
}

// open loads configuration and builds the services. Logs go to stderr so
// stdout carries only command output.
func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: o.configFile, EnvFiles: o.envFiles})
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(slog.String("command", cmd.Name()))

	s := &session{cfg: cfg, logger: logger, logFile: logFile}
	if err := cfg.EnsureDirectories(); err != nil {
		s.Close()
		return nil, err
	}

	s.services, err = app.NewServiceContainer(cfg, logger, nil)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the log file, if any
func (s *session) Close() {
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// openUpload validates a local CSV and presents it the way the HTTP layer
// presents an upload
func (s *session) openUpload(path string) (services.Upload, func(), error) {
	if err := s.services.Files.ValidateCSVFile(path); err != nil {
		return services.Upload{}, func() {}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return services.Upload{}, func() {}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return services.Upload{}, func() {}, err
	}

	upload := services.Upload{Name: filepath.Base(path), Size: info.Size(), Reader: f}
	return upload, func() { f.Close() }, nil
}
