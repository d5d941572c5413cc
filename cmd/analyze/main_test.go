package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"csvanalyst/internal/runner"
	"csvanalyst/internal/shared/testutil"
	"csvanalyst/internal/validation"
)

type fixture struct {
	dir    string
	csv    string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testutil.SampleCSV), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`paths:
  base_dir: %q
logging:
  level: error
telemetry:
  metrics_enabled: false
`, dir)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))

	return fixture{dir: dir, csv: csvPath, config: configPath}
}

func execute(t *testing.T, fx fixture, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if fx.config != "" {
		args = append(args, "--config", fx.config, "--env-file", filepath.Join(fx.dir, ".env"))
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, fixture{}, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "csvanalyst v"), out)
}

func TestVersionCmd_JSON(t *testing.T) {
	out, _, err := execute(t, fixture{}, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info), out)
	assert.NotEmpty(t, info["version"])
	assert.Equal(t, "v1", info["api_version"])
}

func TestEnvCmd(t *testing.T) {
	out, _, err := execute(t, fixture{}, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "CSVA_SERVER_PORT")
	assert.Contains(t, out, "CSVA_ANALYSIS_RUNNER_COMMAND")
}

func TestPreviewCmd(t *testing.T) {
	fx := newFixture(t)

	out, _, err := execute(t, fx, "preview", fx.csv)
	require.NoError(t, err)

	var result struct {
		Rows    int `json:"rows"`
		Columns []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"columns"`
		Head [][]string `json:"head"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, 4, result.Rows)
	require.Len(t, result.Columns, 4)
	assert.Equal(t, "id", result.Columns[0].Name)
	assert.Equal(t, "numeric", result.Columns[0].Kind)
	assert.Equal(t, "categorical", result.Columns[1].Kind)
	assert.Len(t, result.Head, 4)
}

func TestDescribeCmd_CSV(t *testing.T) {
	fx := newFixture(t)

	out, _, err := execute(t, fx, "describe", fx.csv, "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err, out)
	require.Greater(t, len(records), 1)
	assert.Contains(t, strings.Join(records[0], ","), "size")
}

func TestDescribeCmd_XLSXFile(t *testing.T) {
	fx := newFixture(t)
	dest := filepath.Join(fx.dir, "summary.xlsx")

	_, stderr, err := execute(t, fx, "describe", fx.csv, "--all", "--format", "xlsx", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote "+dest)

	f, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Numeric", "Categorical"}, f.GetSheetList())
}

func TestPreprocessCmd_CSV(t *testing.T) {
	fx := newFixture(t)

	out, _, err := execute(t, fx, "preprocess", fx.csv, "--scaler", "minmax", "--id-column", "id", "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err, out)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"id", "color", "size", "target"}, records[0])
	assert.Equal(t, "1", records[1][0])
	for _, row := range records[1:] {
		for _, cell := range row {
			assert.NotEmpty(t, cell)
		}
	}
}

func TestPreprocessCmd_JSON(t *testing.T) {
	fx := newFixture(t)

	out, _, err := execute(t, fx, "preprocess", fx.csv)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.EqualValues(t, 4, result["rows"])
	assert.NotNil(t, result["report"])
}

func TestRunCmd_Statistical(t *testing.T) {
	fx := newFixture(t)

	out, _, err := execute(t, fx, "run", fx.csv, "--analysis", "statistical", "--preprocess", "--id-column", "id")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.NotNil(t, result["description"])
	assert.NotNil(t, result["report"])
}

func TestRunCmd_DelegatedWithoutRunner(t *testing.T) {
	fx := newFixture(t)

	_, _, err := execute(t, fx, "run", fx.csv, "--analysis", "pca", "--pca-components", "2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrRunnerNotConfigured), err.Error())
}

func TestCleanCmd(t *testing.T) {
	fx := newFixture(t)
	workDir := filepath.Join(fx.dir, "work")
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	stale := filepath.Join(workDir, "run-stale.csv")
	require.NoError(t, os.WriteFile(stale, []byte("a\n1\n"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	fresh := filepath.Join(workDir, "run-fresh.csv")
	require.NoError(t, os.WriteFile(fresh, []byte("a\n1\n"), 0o644))

	out, _, err := execute(t, fx, "clean", "--older-than", "30m")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 working files")
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestCommandErrors(t *testing.T) {
	fx := newFixture(t)
	notes := filepath.Join(fx.dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("a,b\n1,2\n"), 0o644))

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "invalid scaler",
			args: []string{"preprocess", fx.csv, "--scaler", "bogus"},
			check: func(t *testing.T, err error) {
				var verr validation.Errors
				assert.True(t, errors.As(err, &verr), err.Error())
			},
		},
		{
			name: "negative header row",
			args: []string{"preview", fx.csv, "--header-row=-1"},
			check: func(t *testing.T, err error) {
				var verr validation.Errors
				assert.True(t, errors.As(err, &verr), err.Error())
			},
		},
		{
			name: "missing file",
			args: []string{"preview", filepath.Join(fx.dir, "nope.csv")},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, os.ErrNotExist), err.Error())
			},
		},
		{
			name: "not a csv file",
			args: []string{"preview", notes},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, validation.ErrUnsupportedType)
			},
		},
		{
			name: "directory",
			args: []string{"preview", fx.dir},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "is a directory")
			},
		},
		{
			name: "unsupported format",
			args: []string{"describe", fx.csv, "--format", "parquet"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unsupported --format")
			},
		},
		{
			name: "missing argument",
			args: []string{"describe"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "accepts 1 arg")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, fx, tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
