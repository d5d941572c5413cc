package dataprocessing

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, input string) *Table {
	t.Helper()
	table, err := LoadCSV(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)
	return table
}

const describeFixture = "x,y,c\n1,10,b\n2,,a\n3,30,b\n4,20,\n"

func TestDescribe_Numeric(t *testing.T) {
	desc := Describe(loadFixture(t, describeFixture))

	require.Len(t, desc.Numeric, 2)
	assert.Empty(t, desc.Categorical)

	x := desc.Numeric[0]
	assert.Equal(t, "x", x.Column)
	assert.Equal(t, 4, x.Count)
	assert.InDelta(t, 2.5, float64(x.Mean), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), float64(x.Std), 1e-12)
	assert.InDelta(t, 1.0, float64(x.Min), 1e-12)
	assert.InDelta(t, 1.75, float64(x.Q25), 1e-12)
	assert.InDelta(t, 2.5, float64(x.Q50), 1e-12)
	assert.InDelta(t, 3.25, float64(x.Q75), 1e-12)
	assert.InDelta(t, 4.0, float64(x.Max), 1e-12)

	y := desc.Numeric[1]
	assert.Equal(t, 3, y.Count, "missing cells are not counted")
	assert.InDelta(t, 20.0, float64(y.Mean), 1e-12)
	assert.InDelta(t, 10.0, float64(y.Std), 1e-12)
	assert.InDelta(t, 15.0, float64(y.Q25), 1e-12)
	assert.InDelta(t, 25.0, float64(y.Q75), 1e-12)
}

func TestDescribe_CategoricalOnly(t *testing.T) {
	desc := Describe(loadFixture(t, "c,d\nb,u\na,v\nb,w\n,u\n"))

	assert.Empty(t, desc.Numeric)
	require.Len(t, desc.Categorical, 2)
	assert.Equal(t, CategoricalSummary{Column: "c", Count: 3, Unique: 2, Top: "b", Freq: 2}, desc.Categorical[0])
	assert.Equal(t, CategoricalSummary{Column: "d", Count: 4, Unique: 3, Top: "u", Freq: 2}, desc.Categorical[1])
}

func TestDescribe_SingleValueStdIsNull(t *testing.T) {
	desc := Describe(loadFixture(t, "x\n7\n"))

	require.Len(t, desc.Numeric, 1)
	assert.True(t, math.IsNaN(float64(desc.Numeric[0].Std)))

	data, err := json.Marshal(desc.Numeric[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"std":null`)
	assert.Contains(t, string(data), `"25%":7`)
}

func TestDescribeAll(t *testing.T) {
	desc, err := DescribeAll(context.Background(), loadFixture(t, describeFixture))
	require.NoError(t, err)

	require.Len(t, desc.Numeric, 2)
	require.Len(t, desc.Categorical, 1)
	assert.Equal(t, "x", desc.Numeric[0].Column)
	assert.Equal(t, "y", desc.Numeric[1].Column)
	assert.Equal(t, "c", desc.Categorical[0].Column)
}

func TestDescribeAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DescribeAll(ctx, loadFixture(t, describeFixture))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescription_Grids(t *testing.T) {
	desc := Describe(loadFixture(t, describeFixture))

	header, rows := desc.NumericGrid()
	assert.Equal(t, []string{"", "x", "y"}, header)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"count", "4.000000", "3.000000"}, rows[0])
	assert.Equal(t, []string{"max", "4.000000", "30.000000"}, rows[7])

	cat := Describe(loadFixture(t, "c\nb\na\nb\n"))
	header, rows = cat.CategoricalGrid()
	assert.Equal(t, []string{"", "c"}, header)
	assert.Equal(t, [][]string{{"count", "3"}, {"unique", "2"}, {"top", "b"}, {"freq", "2"}}, rows)
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		values []float64
		q      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 0.25, 1.75},
		{[]float64{1, 2, 3, 4}, 0.5, 2.5},
		{[]float64{1, 2, 3, 4, 5}, 0.5, 3},
		{[]float64{1, 2, 3, 4, 5}, 0.75, 4},
		{[]float64{5}, 0.25, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(tt.values, tt.q), 1e-12, "q=%v of %v", tt.q, tt.values)
	}
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}
