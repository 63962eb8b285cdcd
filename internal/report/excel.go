package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelSink writes presence grids into one workbook per teacher, one
// sheet per YYYY-MM. Re-exporting a month replaces only that sheet;
// other months' sheets stay untouched.
type ExcelSink struct {
	Dir string
}

// NewExcelSink writes workbooks under dir.
func NewExcelSink(dir string) *ExcelSink {
	if dir == "" {
		dir = "exports"
	}
	return &ExcelSink{Dir: dir}
}

// Write renders the grid into the teacher's workbook and returns the
// file path and sheet name.
func (s *ExcelSink) Write(teacherName string, grid Grid) (string, string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", err
	}
	file := filepath.Join(s.Dir, "attendance_"+strings.ReplaceAll(teacherName, " ", "_")+".xlsx")
	sheet := grid.SheetName()

	var f *excelize.File
	fresh := false
	if _, err := os.Stat(file); err == nil {
		f, err = excelize.OpenFile(file)
		if err != nil {
			return "", "", fmt.Errorf("open workbook: %w", err)
		}
	} else {
		f = excelize.NewFile()
		fresh = true
	}
	defer f.Close()

	// Build the month on a scratch sheet and swap it in. Rewriting the
	// target in place would leave stale rows behind when the grid
	// shrinks: DeleteSheet silently no-ops on a workbook's only sheet.
	if idx, err := f.GetSheetIndex(scratchSheet); err == nil && idx != -1 {
		_ = f.DeleteSheet(scratchSheet)
	}
	if _, err := f.NewSheet(scratchSheet); err != nil {
		return "", "", err
	}
	if err := writeGrid(f, scratchSheet, grid); err != nil {
		return "", "", err
	}

	// The scratch sheet guarantees at least two sheets, so this delete
	// cannot no-op.
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx != -1 {
		if err := f.DeleteSheet(sheet); err != nil {
			return "", "", err
		}
	}
	if err := f.SetSheetName(scratchSheet, sheet); err != nil {
		return "", "", err
	}
	if fresh && sheet != "Sheet1" {
		// Drop the default sheet from a brand new workbook.
		_ = f.DeleteSheet("Sheet1")
	}
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx != -1 {
		f.SetActiveSheet(idx)
	}
	if err := f.SaveAs(file); err != nil {
		return "", "", fmt.Errorf("save workbook: %w", err)
	}
	return file, sheet, nil
}

// scratchSheet can never collide with a YYYY-MM month sheet.
const scratchSheet = "_export_tmp"

func writeGrid(f *excelize.File, sheet string, grid Grid) error {
	header := []interface{}{"roll_no", "name"}
	for d := 1; d <= grid.Days; d++ {
		header = append(header, fmt.Sprintf("%02d", d))
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range grid.Rows {
		cells := []interface{}{row.Roll, row.Name}
		for _, present := range row.Days {
			if present {
				cells = append(cells, "P")
			} else {
				cells = append(cells, "A")
			}
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
