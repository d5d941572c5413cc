package dataprocessing

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Stat is a summary value that marshals NaN as JSON null
type Stat float64

// MarshalJSON writes null for NaN and infinities
func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// String formats the value the way a describe table prints it
func (s Stat) String() string {
	f := float64(s)
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// NumericSummary is one column of a numeric describe
type NumericSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Stat   `json:"mean"`
	Std    Stat   `json:"std"`
	Min    Stat   `json:"min"`
	Q25    Stat   `json:"25%"`
	Q50    Stat   `json:"50%"`
	Q75    Stat   `json:"75%"`
	Max    Stat   `json:"max"`
}

// CategoricalSummary is one column of a categorical describe
type CategoricalSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// Description is the result of Describe
type Description struct {
	Numeric     []NumericSummary     `json:"numeric,omitempty"`
	Categorical []CategoricalSummary `json:"categorical,omitempty"`
}

var (
	numericStatLabels     = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	categoricalStatLabels = []string{"count", "unique", "top", "freq"}
)

// Describe summarises numeric columns. A table without numeric columns is
// summarised by its categorical columns instead.
func Describe(t *Table) *Description {
	desc := &Description{}
	for _, name := range t.columns {
		if kind, _ := t.Kind(name); kind == KindNumeric {
			desc.Numeric = append(desc.Numeric, describeNumeric(t, name))
		}
	}
	if len(desc.Numeric) > 0 {
		return desc
	}
	for _, name := range t.columns {
		desc.Categorical = append(desc.Categorical, describeCategorical(t, name))
	}
	return desc
}

// DescribeAll summarises every column, numeric and categorical, computing
// the column summaries concurrently.
func DescribeAll(ctx context.Context, t *Table) (*Description, error) {
	kinds := t.Kinds()
	numeric := make([]*NumericSummary, len(t.columns))
	categorical := make([]*CategoricalSummary, len(t.columns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for j, name := range t.columns {
		j, name := j, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if kinds[name] == KindNumeric {
				s := describeNumeric(t, name)
				numeric[j] = &s
			} else {
				s := describeCategorical(t, name)
				categorical[j] = &s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	desc := &Description{}
	for j := range t.columns {
		if numeric[j] != nil {
			desc.Numeric = append(desc.Numeric, *numeric[j])
		}
		if categorical[j] != nil {
			desc.Categorical = append(desc.Categorical, *categorical[j])
		}
	}
	return desc, nil
}

func describeNumeric(t *Table, name string) NumericSummary {
	values, _ := t.Numeric(name)
	vals := sortedCopy(present(values))
	lo, hi := minMax(vals)
	return NumericSummary{
		Column: name,
		Count:  len(vals),
		Mean:   Stat(mean(vals)),
		Std:    Stat(sampleStd(vals)),
		Min:    Stat(lo),
		Q25:    Stat(quantile(vals, 0.25)),
		Q50:    Stat(quantile(vals, 0.50)),
		Q75:    Stat(quantile(vals, 0.75)),
		Max:    Stat(hi),
	}
}

func describeCategorical(t *Table, name string) CategoricalSummary {
	cells, _ := t.Column(name)
	distinct := make(map[string]struct{})
	count := 0
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		count++
		distinct[c] = struct{}{}
	}
	top, freq := modeString(cells)
	return CategoricalSummary{
		Column: name,
		Count:  count,
		Unique: len(distinct),
		Top:    top,
		Freq:   freq,
	}
}

// NumericGrid lays the numeric summary out as a describe table: a header of
// column names and one row per statistic, the statistic label first.
func (d *Description) NumericGrid() ([]string, [][]string) {
	header := []string{""}
	for _, s := range d.Numeric {
		header = append(header, s.Column)
	}
	rows := make([][]string, len(numericStatLabels))
	for i, label := range numericStatLabels {
		row := []string{label}
		for _, s := range d.Numeric {
			row = append(row, s.field(i))
		}
		rows[i] = row
	}
	return header, rows
}

// CategoricalGrid is NumericGrid for the categorical summary
func (d *Description) CategoricalGrid() ([]string, [][]string) {
	header := []string{""}
	for _, s := range d.Categorical {
		header = append(header, s.Column)
	}
	rows := make([][]string, len(categoricalStatLabels))
	for i, label := range categoricalStatLabels {
		row := []string{label}
		for _, s := range d.Categorical {
			switch i {
			case 0:
				row = append(row, strconv.Itoa(s.Count))
			case 1:
				row = append(row, strconv.Itoa(s.Unique))
			case 2:
				row = append(row, s.Top)
			default:
				row = append(row, strconv.Itoa(s.Freq))
			}
		}
		rows[i] = row
	}
	return header, rows
}

func (s NumericSummary) field(i int) string {
	switch i {
	case 0:
		return strconv.FormatFloat(float64(s.Count), 'f', 6, 64)
	case 1:
		return s.Mean.String()
	case 2:
		return s.Std.String()
	case 3:
		return s.Min.String()
	case 4:
		return s.Q25.String()
	case 5:
		return s.Q50.String()
	case 6:
		return s.Q75.String()
	default:
		return s.Max.String()
	}
}
