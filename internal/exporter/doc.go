// Package exporter writes tables out as CSV and XLSX.
//
// CSVWriter owns the per-run working files handed to the analysis runner:
// each run gets its own run-<uuid>.csv so concurrent sessions never share a
// file. Encode and WriteXLSX serve downloads and write to any io.Writer.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(workDir, logger)
//	path, err := w.WriteWorkingFile(table.Columns(), table.Records())
//	defer w.Remove(path)
//
//	err = exporter.WriteXLSX(resp, exporter.Sheet{Name: "data", Headers: cols, Records: rows})
package exporter
