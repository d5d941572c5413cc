package exporter

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an XLSX export
type Sheet struct {
	Name    string
	Headers []string
	Records [][]string
}

// WriteXLSX writes the sheets into a workbook. Cells that parse as numbers
// are stored as numbers so spreadsheet formulas work on them.
func WriteXLSX(dst io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx export needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		row := 1
		if len(sheet.Headers) > 0 {
			if err := setRow(f, name, row, sheet.Headers, false); err != nil {
				return err
			}
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(sheet.Headers), row)
			if err := f.SetCellStyle(name, first, last, headerStyle); err != nil {
				return fmt.Errorf("failed to style header: %w", err)
			}
			row++
		}
		for _, record := range sheet.Records {
			if err := setRow(f, name, row, record, true); err != nil {
				return err
			}
			row++
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string, typed bool) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
		if !typed {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = v
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// sheetName returns a name excelize accepts: non-empty, at most 31
// characters, none of : \ / ? * [ ]
func sheetName(name string, idx int) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", idx+1)
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
