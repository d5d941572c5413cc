package exporter

import (
	"strconv"

	"csvanalyst/internal/dataprocessing"
)

// reportHeaders are the columns of the preprocessing report sheet
var reportHeaders = []string{"column", "kind", "missing", "fill_value", "scaler", "center", "scale", "skipped"}

// DescribeGrid returns the describe table as a single grid: the numeric
// summary, or the categorical one when no column is numeric.
func DescribeGrid(d *dataprocessing.Description) ([]string, [][]string) {
	if len(d.Numeric) == 0 {
		return d.CategoricalGrid()
	}
	return d.NumericGrid()
}

// DescribeSheets lays out a description as workbook sheets
func DescribeSheets(d *dataprocessing.Description) []Sheet {
	var sheets []Sheet
	if len(d.Numeric) > 0 {
		headers, records := d.NumericGrid()
		sheets = append(sheets, Sheet{Name: "Numeric", Headers: headers, Records: records})
	}
	if len(d.Categorical) > 0 {
		headers, records := d.CategoricalGrid()
		sheets = append(sheets, Sheet{Name: "Categorical", Headers: headers, Records: records})
	}
	if len(sheets) == 0 {
		sheets = append(sheets, Sheet{Name: "Describe"})
	}
	return sheets
}

// ReportSheet lays out a preprocessing report, one row per column
func ReportSheet(report *dataprocessing.Report) Sheet {
	sheet := Sheet{Name: "Report", Headers: reportHeaders}
	if report == nil {
		return sheet
	}
	for _, c := range report.Columns {
		row := []string{c.Column, string(c.Kind), strconv.Itoa(c.Missing), "", "", "", "", strconv.FormatBool(c.Skipped)}
		if c.FillValue != nil {
			row[3] = strconv.FormatFloat(*c.FillValue, 'g', -1, 64)
		}
		if c.Scaler != nil {
			row[4] = string(c.Scaler.Method)
			row[5] = strconv.FormatFloat(c.Scaler.Center, 'g', -1, 64)
			row[6] = strconv.FormatFloat(c.Scaler.Scale, 'g', -1, 64)
		}
		sheet.Records = append(sheet.Records, row)
	}
	return sheet
}

// ProcessedSheets lays out a preprocessed table and its report
func ProcessedSheets(t *dataprocessing.Table, report *dataprocessing.Report) []Sheet {
	return []Sheet{
		{Name: "Processed", Headers: t.Columns(), Records: t.Records()},
		ReportSheet(report),
	}
}
