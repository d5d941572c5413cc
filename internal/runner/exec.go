package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultTimeout   = 5 * time.Minute
	defaultMaxOutput = 16 << 20
	stderrTailBytes  = 4096
	waitDelay        = 2 * time.Second
)

// ExecConfig configures ExecRunner
type ExecConfig struct {
	Command        string
	Args           []string
	Dir            string
	Env            []string
	Timeout        time.Duration
	MaxOutputBytes int
}

// ExecRunner runs the entry point as a child process
type ExecRunner struct {
	cfg    ExecConfig
	logger *slog.Logger
}

// New returns an ExecRunner, or an UnconfiguredRunner when cfg has no command.
func New(cfg ExecConfig, logger *slog.Logger) Runner {
	if strings.TrimSpace(cfg.Command) == "" {
		return UnconfiguredRunner{}
	}
	return NewExecRunner(cfg, logger)
}

// NewExecRunner creates an ExecRunner with defaults applied
func NewExecRunner(cfg ExecConfig, logger *slog.Logger) *ExecRunner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutput
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "exec_runner")),
	}
}

// Configured implements Runner
func (r *ExecRunner) Configured() bool { return true }

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode runner request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = waitDelay

	stdout := &cappedBuffer{limit: r.cfg.MaxOutputBytes}
	stderr := &cappedBuffer{limit: r.cfg.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.InfoContext(ctx, "starting analysis runner",
		slog.String("command", r.cfg.Command),
		slog.String("analysis", string(req.Config.Analysis)),
		slog.String("data_path", req.DataPath))

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if runErr != nil {
		rerr := &RunError{
			Command: r.cfg.Command,
			Stderr:  tail(stderr.String(), stderrTailBytes),
			Err:     runErr,
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			rerr.ExitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			rerr.Err = fmt.Errorf("timed out after %s: %w", r.cfg.Timeout, context.DeadlineExceeded)
		}

		r.logger.ErrorContext(ctx, "analysis runner failed",
			slog.String("command", r.cfg.Command),
			slog.Int("exit_code", rerr.ExitCode),
			slog.Duration("duration", duration),
			slog.String("error", runErr.Error()),
			slog.String("stderr", rerr.Stderr))
		return nil, rerr
	}

	if stdout.truncated {
		return nil, &RunError{
			Command: r.cfg.Command,
			Err:     fmt.Errorf("output exceeds %d bytes", r.cfg.MaxOutputBytes),
		}
	}

	result := &Result{
		Stderr:   tail(stderr.String(), stderrTailBytes),
		Duration: duration,
	}
	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) > 0 && json.Valid(out) {
		result.Data = json.RawMessage(out)
	} else {
		result.Text = string(out)
	}

	r.logger.InfoContext(ctx, "analysis runner finished",
		slog.String("command", r.cfg.Command),
		slog.Duration("duration", duration),
		slog.Int("output_bytes", len(out)),
		slog.Bool("json", result.Data != nil))
	return result, nil
}

// cappedBuffer keeps at most limit bytes and records whether more arrived.
// The buffer is a named field so io.Copy cannot bypass Write via ReadFrom.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.truncated = true
		b.buf.Write(p[:room])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) Bytes() []byte { return b.buf.Bytes() }

func (b *cappedBuffer) String() string { return b.buf.String() }

// tail keeps the last n bytes of s, starting on a rune boundary
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "..." + s[cut:]
}
