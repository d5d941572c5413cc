// Command web serves the CSV analysis form and the JSON API.
//
// Build metadata is injected with ldflags:
//
//	go build -ldflags "-X csvanalyst/pkg/contracts.BuildTime=$(date -u +%FT%TZ) -X csvanalyst/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)" ./cmd/web
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"csvanalyst/internal/app"
	"csvanalyst/internal/config"
	"csvanalyst/internal/infrastructure"
	"csvanalyst/pkg/contracts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts        app.Options
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:           "web",
		Short:         "Serve the CSV analysis web form and API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString(config.AppName))
				return nil
			}

			application, err := app.NewApplication(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer infrastructure.CloseLogFile()

			return application.Run()
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides CSVA_CONFIG_FILE)")
	cmd.Flags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print version information and exit")

	return cmd
}
