// Package files finds and expires files in the work directory.
//
// Discovery lists files matching a glob, oldest first. Sweeper uses it to
// delete run-*.csv working files older than a retention period, either on
// demand or on a ticker for the lifetime of the server:
//
//	sweeper := files.NewSweeper(cfg.Paths.WorkDir, cfg.Analysis.WorkFileTTL, logger)
//	go sweeper.Run(ctx, cfg.Analysis.SweepInterval)
package files
