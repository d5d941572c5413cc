package runner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRunnerNotConfigured is returned when no analysis command is set
	ErrRunnerNotConfigured = errors.New("analysis runner is not configured")
	// ErrRunnerFailed wraps every failure of the entry point
	ErrRunnerFailed = errors.New("analysis runner failed")
)

// RunError describes a failed invocation
type RunError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrRunnerFailed, e.Command)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\n%s", e.Stderr)
	}
	return b.String()
}

// Unwrap exposes both ErrRunnerFailed and the underlying cause
func (e *RunError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRunnerFailed}
	}
	return []error{ErrRunnerFailed, e.Err}
}
