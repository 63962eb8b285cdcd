package report_test

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/report"
)

func sampleGrid(year int, month time.Month) report.Grid {
	days := report.DaysInMonth(year, month)
	row := report.Row{Roll: "01", Name: "Asha", Days: make([]bool, days)}
	row.Days[0] = true
	return report.Grid{Year: year, Month: month, Days: days, Rows: []report.Row{row}}
}

func TestExcelSinkKeepsOtherMonths(t *testing.T) {
	sink := report.NewExcelSink(t.TempDir())

	file, sheet, err := sink.Write("Ms X", sampleGrid(2024, time.January))
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if sheet != "2024-01" {
		t.Errorf("sheet = %q", sheet)
	}

	file2, _, err := sink.Write("Ms X", sampleGrid(2024, time.February))
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if file2 != file {
		t.Fatalf("months must share one workbook: %q vs %q", file, file2)
	}

	f, err := excelize.OpenFile(file)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	found := map[string]bool{}
	for _, s := range sheets {
		found[s] = true
	}
	if !found["2024-01"] || !found["2024-02"] {
		t.Fatalf("sheets = %v, want both months", sheets)
	}

	// Day 1 was present, day 2 absent.
	if v, _ := f.GetCellValue("2024-01", "C2"); v != "P" {
		t.Errorf("C2 = %q, want P", v)
	}
	if v, _ := f.GetCellValue("2024-01", "D2"); v != "A" {
		t.Errorf("D2 = %q, want A", v)
	}
}

func TestExcelSinkDropsStaleRowsOnReexport(t *testing.T) {
	sink := report.NewExcelSink(t.TempDir())

	// First export: two students. The month sheet is the only sheet in
	// the workbook, the case where an in-place rewrite would leave the
	// second row behind.
	grid := sampleGrid(2024, time.May)
	grid.Rows = append(grid.Rows, report.Row{Roll: "02", Name: "Ben", Days: make([]bool, grid.Days)})
	if _, _, err := sink.Write("Ms X", grid); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Re-export after one student was deleted.
	file, _, err := sink.Write("Ms X", sampleGrid(2024, time.May))
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	f, err := excelize.OpenFile(file)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("2024-05", "A2"); v != "01" {
		t.Errorf("A2 = %q, want the remaining student", v)
	}
	if v, _ := f.GetCellValue("2024-05", "A3"); v != "" {
		t.Errorf("deleted student's row lingers: A3 = %q", v)
	}
	for _, s := range f.GetSheetList() {
		if s != "2024-05" {
			t.Errorf("unexpected sheet %q", s)
		}
	}
}

func TestExcelSinkReplacesSameMonth(t *testing.T) {
	sink := report.NewExcelSink(t.TempDir())

	if _, _, err := sink.Write("Ms X", sampleGrid(2024, time.March)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	grid := sampleGrid(2024, time.March)
	grid.Rows[0].Days[0] = false
	file, _, err := sink.Write("Ms X", grid)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	f, err := excelize.OpenFile(file)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("2024-03", "C2"); v != "A" {
		t.Errorf("re-export must replace the month sheet, C2 = %q", v)
	}
	count := 0
	for _, s := range f.GetSheetList() {
		if s == "2024-03" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate month sheets: %v", f.GetSheetList())
	}
}
