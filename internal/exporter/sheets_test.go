package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvanalyst/internal/dataprocessing"
)

func sampleTable(t *testing.T) *dataprocessing.Table {
	t.Helper()
	table, err := dataprocessing.NewTable([]string{"size", "color"}, [][]string{{"1", "red"}, {"3", "blue"}, {"", "red"}})
	require.NoError(t, err)
	return table
}

func TestDescribeSheets(t *testing.T) {
	d, err := dataprocessing.DescribeAll(context.Background(), sampleTable(t))
	require.NoError(t, err)
	sheets := DescribeSheets(d)

	require.Len(t, sheets, 2)
	assert.Equal(t, "Numeric", sheets[0].Name)
	assert.Equal(t, "Categorical", sheets[1].Name)
	assert.NotEmpty(t, sheets[0].Records)
}

func TestDescribeSheets_Empty(t *testing.T) {
	sheets := DescribeSheets(&dataprocessing.Description{})
	require.Len(t, sheets, 1)
	assert.Equal(t, "Describe", sheets[0].Name)
}

func TestDescribeGrid(t *testing.T) {
	table, err := dataprocessing.NewTable([]string{"color"}, [][]string{{"red"}, {"blue"}})
	require.NoError(t, err)
	d := dataprocessing.Describe(table)

	headers, records := DescribeGrid(d)
	wantHeaders, wantRecords := d.CategoricalGrid()
	assert.Equal(t, wantHeaders, headers)
	assert.Equal(t, wantRecords, records)
}

func TestProcessedSheets(t *testing.T) {
	processed, report, err := dataprocessing.Preprocess(sampleTable(t), dataprocessing.PreprocessOptions{
		Scaler:      dataprocessing.ScalerMinMax,
		NumericFill: dataprocessing.FillMean,
	})
	require.NoError(t, err)

	sheets := ProcessedSheets(processed, report)
	require.Len(t, sheets, 2)

	assert.Equal(t, "Processed", sheets[0].Name)
	assert.Equal(t, []string{"size", "color"}, sheets[0].Headers)
	assert.Len(t, sheets[0].Records, 3)

	assert.Equal(t, "Report", sheets[1].Name)
	assert.Equal(t, reportHeaders, sheets[1].Headers)
	require.Len(t, sheets[1].Records, 2)
	size := sheets[1].Records[0]
	assert.Equal(t, "size", size[0])
	assert.Equal(t, "1", size[2])
	assert.Equal(t, "2", size[3])
	assert.Equal(t, "minmax", size[4])
}

func TestReportSheet_NilReport(t *testing.T) {
	sheet := ReportSheet(nil)
	assert.Equal(t, "Report", sheet.Name)
	assert.Empty(t, sheet.Records)
}
