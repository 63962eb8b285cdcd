// Package report rebuilds monthly presence grids from attendance rows
// and exports them as per-teacher workbooks.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/attendance"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/session"
)

// StatusReader resolves the effective status for one student/day tuple.
type StatusReader interface {
	LastStatusOn(ctx context.Context, studentID int64, day time.Time, class, teacher string) (string, bool, error)
}

// Row is one student's presence flags, one per calendar day.
type Row struct {
	Roll string `json:"roll"`
	Name string `json:"name"`
	Days []bool `json:"days"`
}

// Grid is the full presence matrix for one teacher/class/month.
type Grid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  int        `json:"days"`
	Rows  []Row      `json:"rows"`
}

// SheetName returns the YYYY-MM label used for the export sheet.
func (g Grid) SheetName() string {
	return fmt.Sprintf("%04d-%02d", g.Year, int(g.Month))
}

// DaysInMonth computes the month length from the first day of the next
// month minus one day, which handles leap-year February.
func DaysInMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, 0).AddDate(0, 0, -1).Day()
}

// BuildMonthlyGrid reconstructs the presence matrix for every student
// across the whole month. A day counts as present only when the most
// recent row for the tuple has status Present; a manual Absent entry
// renders absent, and no row at all renders absent. The grid is always
// a full recomputation.
//
// Any store failure aborts the build; no partial grid is returned.
func BuildMonthlyGrid(ctx context.Context, reader StatusReader, students []roster.Student, sess session.Session, year int, month time.Month) (Grid, error) {
	days := DaysInMonth(year, month)
	grid := Grid{Year: year, Month: month, Days: days}

	sorted := make([]roster.Student, len(students))
	copy(sorted, students)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Roll < sorted[j].Roll })

	for _, st := range sorted {
		row := Row{Roll: st.Roll, Name: st.Name, Days: make([]bool, days)}
		for d := 1; d <= days; d++ {
			day := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
			status, found, err := reader.LastStatusOn(ctx, st.ID, day, sess.Class, sess.Teacher)
			if err != nil {
				return Grid{}, fmt.Errorf("status for %s on %s: %w", st.Roll, day.Format("2006-01-02"), err)
			}
			row.Days[d-1] = found && status == attendance.StatusPresent
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}
