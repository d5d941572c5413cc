package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// WorkFilePattern matches the per-run files handed to the analysis runner
const WorkFilePattern = "run-*.csv"

// SweepResult summarises one sweep
type SweepResult struct {
	Removed []string `json:"removed"`
	Bytes   int64    `json:"bytes"`
	Failed  int      `json:"failed"`
}

// Sweeper removes stale working files. Runs normally delete their own file;
// the sweeper catches files kept for debugging or left by a crash.
type Sweeper struct {
	discovery *Discovery
	dir       string
	maxAge    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSweeper creates a sweeper for files in dir older than maxAge
func NewSweeper(dir string, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		discovery: NewDiscovery(dir),
		dir:       dir,
		maxAge:    maxAge,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "work_file_sweeper")),
	}
}

// Sweep removes every working file older than the sweeper's max age
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	found, err := s.discovery.FindFilesByPattern(".", WorkFilePattern)
	if err != nil {
		return result, err
	}

	for _, file := range FilterOlderThan(found, s.now().Add(-s.maxAge)) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Failed++
			s.logger.WarnContext(ctx, "Failed to remove working file",
				slog.String("path", file.Path),
				slog.String("error", err.Error()))
			continue
		}
		result.Removed = append(result.Removed, file.Path)
		result.Bytes += file.Size
	}

	if len(result.Removed) > 0 || result.Failed > 0 {
		s.logger.InfoContext(ctx, "Working files swept",
			slog.Int("removed", len(result.Removed)),
			slog.Int64("bytes", result.Bytes),
			slog.Int("failed", result.Failed))
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("failed to remove %d working files", result.Failed)
	}
	return result, nil
}

// Run sweeps once, then every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "Working file sweep failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
