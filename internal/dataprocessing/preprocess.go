package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Scaler names a feature scaling method
type Scaler string

const (
	ScalerNone     Scaler = "none"
	ScalerStandard Scaler = "standard"
	ScalerMinMax   Scaler = "minmax"
	ScalerRobust   Scaler = "robust"
)

// FillStrategy names how missing numeric cells are filled
type FillStrategy string

const (
	FillMean   FillStrategy = "mean"
	FillMedian FillStrategy = "median"
	FillMode   FillStrategy = "mode"
)

// PreprocessOptions configures Preprocess
type PreprocessOptions struct {
	Scaler       Scaler
	NumericFill  FillStrategy
	IDColumn     string
	TargetColumn string
}

// ScalerParams records how a column was scaled: x' = (x - Center) / Scale.
// A zero Scale maps every value to 0.
type ScalerParams struct {
	Method Scaler  `json:"method"`
	Center float64 `json:"center"`
	Scale  float64 `json:"scale"`
}

// ColumnReport describes what Preprocess did to one column
type ColumnReport struct {
	Column    string         `json:"column"`
	Kind      ColumnKind     `json:"kind"`
	Encoder   map[string]int `json:"encoder,omitempty"`
	Missing   int            `json:"missing"`
	FillValue *float64       `json:"fill_value,omitempty"`
	Scaler    *ScalerParams  `json:"scaler,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
}

// Report is the outcome of Preprocess
type Report struct {
	Columns  []ColumnReport `json:"columns"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Preprocess label-encodes categorical columns, fills missing cells and
// optionally scales the feature columns. The id column is left untouched and
// the target column is encoded and filled but never scaled. The input table
// is not modified.
func Preprocess(t *Table, opts PreprocessOptions) (*Table, *Report, error) {
	if opts.Scaler == "" {
		opts.Scaler = ScalerNone
	}
	if opts.NumericFill == "" {
		opts.NumericFill = FillMean
	}
	switch opts.Scaler {
	case ScalerNone, ScalerStandard, ScalerMinMax, ScalerRobust:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownScaler, opts.Scaler)
	}
	switch opts.NumericFill {
	case FillMean, FillMedian, FillMode:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFillStrategy, opts.NumericFill)
	}
	for _, name := range []string{opts.IDColumn, opts.TargetColumn} {
		if name != "" && !t.HasColumn(name) {
			return nil, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
	}

	out := t.Clone()
	report := &Report{Columns: make([]ColumnReport, 0, len(out.columns))}

	for _, name := range out.columns {
		cells, _ := out.Column(name)
		kind := inferKind(cells)
		col := ColumnReport{Column: name, Kind: kind}

		if name == opts.IDColumn {
			col.Skipped = true
			report.Columns = append(report.Columns, col)
			continue
		}

		var values []float64
		if kind == KindCategorical {
			values, col.Encoder = LabelEncode(cells)
		} else {
			values, _ = out.Numeric(name)
		}

		strategy := opts.NumericFill
		if kind == KindCategorical {
			strategy = FillMode
		}
		fill, missing, err := FillMissing(values, strategy)
		if err != nil {
			return nil, nil, err
		}
		col.Missing = missing
		if math.IsNaN(fill) {
			if missing > 0 {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("column %q has no values; left missing", name))
			}
		} else if missing > 0 {
			col.FillValue = &fill
		}

		if opts.Scaler != ScalerNone && name != opts.TargetColumn {
			params, err := ScaleInPlace(values, opts.Scaler)
			if err != nil {
				return nil, nil, err
			}
			col.Scaler = &params
		}

		encoded := make([]string, len(values))
		for i, v := range values {
			encoded[i] = formatFloat(v)
		}
		out.setColumn(name, encoded)
		report.Columns = append(report.Columns, col)
	}

	return out, report, nil
}

// LabelEncode maps distinct non-missing values, sorted, to codes 0..k-1.
// Missing cells become NaN.
func LabelEncode(cells []string) ([]float64, map[string]int) {
	var distinct []string
	mapping := make(map[string]int)
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		if _, ok := mapping[c]; !ok {
			mapping[c] = 0
			distinct = append(distinct, c)
		}
	}
	sort.Strings(distinct)
	for code, v := range distinct {
		mapping[v] = code
	}

	out := make([]float64, len(cells))
	for i, c := range cells {
		if IsMissing(c) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(mapping[c])
	}
	return out, mapping
}

// FillMissing replaces NaN entries in place and returns the fill value and
// the number of cells filled. When every entry is NaN nothing is filled and
// the returned fill value is NaN.
func FillMissing(values []float64, strategy FillStrategy) (float64, int, error) {
	known := present(values)
	missing := len(values) - len(known)
	if len(known) == 0 {
		return math.NaN(), missing, nil
	}

	var fill float64
	switch strategy {
	case FillMean:
		fill = mean(known)
	case FillMedian:
		m, err := stats.Median(stats.Float64Data(known))
		if err != nil {
			return 0, 0, fmt.Errorf("median: %w", err)
		}
		fill = m
	case FillMode:
		fill, _ = modeFloat(known)
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownFillStrategy, strategy)
	}

	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = fill
		}
	}
	return fill, missing, nil
}

// zeroScale is the spread below which a column is treated as constant
const zeroScale = 1e-12

// ScaleInPlace scales values with the named method, leaving NaN entries as
// NaN, and returns the parameters used.
func ScaleInPlace(values []float64, method Scaler) (ScalerParams, error) {
	params := ScalerParams{Method: method, Scale: 1}
	known := present(values)

	switch method {
	case ScalerNone:
		return params, nil
	case ScalerStandard:
		if len(known) > 0 {
			params.Center, params.Scale = stat.PopMeanStdDev(known, nil)
		}
	case ScalerMinMax:
		if len(known) > 0 {
			lo, hi := minMax(known)
			params.Center = lo
			params.Scale = hi - lo
		}
	case ScalerRobust:
		if len(known) > 0 {
			sorted := sortedCopy(known)
			params.Center = quantile(sorted, 0.5)
			params.Scale = quantile(sorted, 0.75) - quantile(sorted, 0.25)
		}
	default:
		return params, fmt.Errorf("%w: %q", ErrUnknownScaler, method)
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.Abs(params.Scale) < zeroScale {
			values[i] = 0
			continue
		}
		values[i] = (v - params.Center) / params.Scale
	}
	return params, nil
}
