package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
)

// Attendance statuses. Automatic records are always Present; manual
// entries may be either.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Record is one attendance row. Rows are append-only: manual entries
// for the same tuple stack up and the most recent one wins.
type Record struct {
	ID        string    `json:"id"`
	StudentID int64     `json:"student_id"`
	Date      time.Time `json:"date"`
	TimeOfDay string    `json:"time"`
	Status    string    `json:"status"`
	ClassName string    `json:"class_name"`
	Teacher   string    `json:"teacher"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentRecord is a record joined with the student's name and roll for
// listings.
type StudentRecord struct {
	Record
	StudentName string `json:"student_name"`
	Roll        string `json:"roll"`
}

// Teacher is a teacher/subject pairing selectable in the dashboard.
type Teacher struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// Repository persists roster and attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListStudents returns the full roster ordered by roll number.
func (r *Repository) ListStudents(ctx context.Context) ([]roster.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll_no, mac_address
		FROM students
		ORDER BY roll_no
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var st roster.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Roll, &st.MAC); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// CreateStudent inserts a student with the MAC stored as entered.
func (r *Repository) CreateStudent(ctx context.Context, name, roll, mac string) (roster.Student, error) {
	if name == "" || roll == "" {
		return roster.Student{}, errors.New("name and roll required")
	}
	st := roster.Student{Name: name, Roll: roll, MAC: mac}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, roll_no, mac_address)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, roll, mac)
	if err := row.Scan(&st.ID); err != nil {
		return roster.Student{}, err
	}
	return st, nil
}

// DeleteStudent removes a student. Their attendance rows are kept.
func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

// ListTeachers returns all teachers ordered by name.
func (r *Repository) ListTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, subject FROM teachers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// CreateTeacher inserts a teacher.
func (r *Repository) CreateTeacher(ctx context.Context, name, subject string) (Teacher, error) {
	if name == "" || subject == "" {
		return Teacher{}, errors.New("name and subject required")
	}
	t := Teacher{Name: name, Subject: subject}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teachers (name, subject) VALUES ($1, $2) RETURNING id
	`, name, subject)
	if err := row.Scan(&t.ID); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

// HasRecord reports whether any attendance row exists for the tuple.
// This is the idempotency gate for automatic marking: a manual row for
// the same tuple also suppresses a second automatic insert.
func (r *Repository) HasRecord(ctx context.Context, studentID int64, day time.Time, class, teacher string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM attendance
		WHERE student_id = $1 AND date = $2 AND class_name = $3 AND teacher = $4
		LIMIT 1
	`, studentID, day, class, teacher)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertRecord appends an attendance row, filling id and timestamps
// when unset.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	if rec.Date.IsZero() {
		rec.Date = dateOf(now)
	}
	if rec.TimeOfDay == "" {
		rec.TimeOfDay = now.Format("15:04:05")
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, date, time, status, class_name, teacher)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, rec.ID, rec.StudentID, rec.Date, rec.TimeOfDay, rec.Status, rec.ClassName, rec.Teacher)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecentRecords returns the newest attendance rows joined with student
// name and roll.
func (r *Repository) RecentRecords(ctx context.Context, limit int) ([]StudentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, s.name, s.roll_no, a.date, a.time, a.status,
		       a.class_name, a.teacher, a.created_at
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		ORDER BY a.date DESC, a.time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []StudentRecord
	for rows.Next() {
		var sr StudentRecord
		if err := rows.Scan(&sr.ID, &sr.StudentID, &sr.StudentName, &sr.Roll, &sr.Date,
			&sr.TimeOfDay, &sr.Status, &sr.ClassName, &sr.Teacher, &sr.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

// LastStatusOn returns the status of the most recent row for the tuple,
// or found=false when no row exists. The monthly grid is built on this
// so a manually recorded Absent renders as absent even though a row
// exists for the day.
func (r *Repository) LastStatusOn(ctx context.Context, studentID int64, day time.Time, class, teacher string) (string, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT status FROM attendance
		WHERE student_id = $1 AND date = $2 AND class_name = $3 AND teacher = $4
		ORDER BY time DESC
		LIMIT 1
	`, studentID, day, class, teacher)
	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return status, true, nil
}

// dateOf truncates a timestamp to its calendar day in local time.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
