package store

import (
	"context"
	"database/sql"
	"log"
)

// Migrate creates the schema when it does not exist yet. Attendance
// rows are append-only and deliberately carry no uniqueness constraint
// on (student, date, class, teacher): manual entries stack, and the
// automatic-marking dedup happens in the service.
func Migrate(ctx context.Context, db *sql.DB) error {
	log.Println("running database migrations...")
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			roll_no     TEXT NOT NULL,
			mac_address TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS teachers (
			id      BIGSERIAL PRIMARY KEY,
			name    TEXT NOT NULL,
			subject TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id         UUID PRIMARY KEY,
			student_id BIGINT NOT NULL,
			date       DATE NOT NULL,
			time       TIME NOT NULL,
			status     TEXT NOT NULL,
			class_name TEXT NOT NULL,
			teacher    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_tuple
			ON attendance (student_id, date, class_name, teacher)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_day
			ON attendance (date, class_name, teacher)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("database migrations completed")
	return nil
}
