// Package runner hands a prepared dataset to the external analysis entry
// point and collects whatever it returns.
//
// The entry point is an opaque program. It receives a Request as JSON on
// stdin, reads the working file named in it, and writes its result to stdout.
// A JSON document on stdout is passed through as structured data; anything
// else is shown verbatim as text.
package runner

import (
	"context"
	"encoding/json"
	"time"

	"csvanalyst/internal/analysis"
)

// Request is what the entry point receives
type Request struct {
	// DataPath is the working file. Its header is always on row 0.
	DataPath  string             `json:"data_path"`
	HeaderRow int                `json:"header_row"`
	Config    analysis.RunConfig `json:"config"`
}

// Result is what the entry point produced
type Result struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Text     string          `json:"text,omitempty"`
	Stderr   string          `json:"-"`
	Duration time.Duration   `json:"duration_ns"`
}

// Runner invokes the external analysis
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
	// Configured reports whether Run can succeed at all
	Configured() bool
}

// UnconfiguredRunner stands in when no entry point is configured
type UnconfiguredRunner struct{}

// Run always fails with ErrRunnerNotConfigured
func (UnconfiguredRunner) Run(context.Context, Request) (*Result, error) {
	return nil, ErrRunnerNotConfigured
}

// Configured implements Runner
func (UnconfiguredRunner) Configured() bool { return false }
