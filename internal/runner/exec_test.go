package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/shared/testutil"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func sampleRequest() Request {
	return Request{
		DataPath:  "/tmp/run-1234.csv",
		HeaderRow: 0,
		Config: analysis.RunConfig{
			Analysis:     analysis.TypeMachineLearning,
			Task:         analysis.TaskClassification,
			Model:        analysis.ModelRandomForest,
			TargetColumn: "target",
		},
	}
}

func TestNew_WithoutCommand(t *testing.T) {
	r := New(ExecConfig{Command: "  "}, nil)

	assert.False(t, r.Configured())
	_, err := r.Run(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrRunnerNotConfigured)
}

func TestExecRunner_JSONOutput(t *testing.T) {
	requireShell(t)
	logger, logs := testutil.NewTestLogger(t)

	// cat echoes the request, which is valid JSON
	r := New(ExecConfig{Command: "cat"}, logger)
	require.True(t, r.Configured())

	res, err := r.Run(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Data)
	assert.Empty(t, res.Text)

	var echoed Request
	require.NoError(t, json.Unmarshal(res.Data, &echoed))
	assert.Equal(t, sampleRequest(), echoed)
	assert.True(t, logs.ContainsMessage("analysis runner finished"))
}

func TestExecRunner_TextOutput(t *testing.T) {
	requireShell(t)

	r := NewExecRunner(ExecConfig{
		Command: "sh",
		Args:    []string{"-c", "cat >/dev/null; echo 'accuracy: 0.93'; echo 'done' >&2"},
	}, nil)

	res, err := r.Run(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Nil(t, res.Data)
	assert.Equal(t, "accuracy: 0.93", res.Text)
	assert.Equal(t, "done", res.Stderr)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	logger, logs := testutil.NewTestLogger(t)

	r := NewExecRunner(ExecConfig{
		Command: "sh",
		Args:    []string{"-c", "echo 'ValueError: could not convert string to float' >&2; exit 3"},
	}, logger)

	_, err := r.Run(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerFailed)

	var rerr *RunError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 3, rerr.ExitCode)
	assert.Contains(t, rerr.Stderr, "could not convert string to float")
	assert.Contains(t, err.Error(), "exited with status 3")
	assert.True(t, logs.ContainsMessage("analysis runner failed"))
}

func TestExecRunner_Timeout(t *testing.T) {
	requireShell(t)

	r := NewExecRunner(ExecConfig{
		Command: "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	}, nil)

	start := time.Now()
	_, err := r.Run(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	r := NewExecRunner(ExecConfig{Command: "definitely-not-a-real-analysis-binary"}, nil)

	_, err := r.Run(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrRunnerFailed)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestExecRunner_OutputCap(t *testing.T) {
	requireShell(t)

	r := NewExecRunner(ExecConfig{
		Command:        "sh",
		Args:           []string{"-c", "cat >/dev/null; printf '%0200d' 0"},
		MaxOutputBytes: 64,
	}, nil)

	_, err := r.Run(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerFailed)
	assert.Contains(t, err.Error(), "output exceeds 64 bytes")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("  short\n", 10))
	long := strings.Repeat("x", 20) + "END"
	assert.Equal(t, "...xxEND", tail(long, 5))
}

func TestTail_RuneBoundary(t *testing.T) {
	// "é" is two bytes; a five-byte cut lands inside it
	out := tail("abcdé1234", 5)
	assert.True(t, utf8.ValidString(out), out)
	assert.Equal(t, "...1234", out)
}

func TestCappedBuffer_CopyRespectsLimit(t *testing.T) {
	buf := &cappedBuffer{limit: 64}

	n, err := io.Copy(buf, bytes.NewReader(bytes.Repeat([]byte("x"), 100000)))
	require.NoError(t, err)
	assert.EqualValues(t, 100000, n)
	assert.Len(t, buf.Bytes(), 64)
	assert.True(t, buf.truncated)
}
