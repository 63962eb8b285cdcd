package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/macaddr"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/metrics"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/netscan"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/session"
)

// Store is the persistence surface the reconcile engine needs.
type Store interface {
	ListStudents(ctx context.Context) ([]roster.Student, error)
	HasRecord(ctx context.Context, studentID int64, day time.Time, class, teacher string) (bool, error)
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	LastStatusOn(ctx context.Context, studentID int64, day time.Time, class, teacher string) (string, bool, error)
}

// MarkError pairs a student with the failure that kept them from being
// marked.
type MarkError struct {
	Student roster.Student `json:"student"`
	Err     string         `json:"error"`
}

// ScanResult summarizes one reconcile pass. It is ephemeral: built per
// invocation, optionally cached for display, never persisted.
type ScanResult struct {
	DetectedMACs []string         `json:"detected_macs"`
	Marked       []roster.Student `json:"marked"`
	Already      []roster.Student `json:"already"`
	Errors       []MarkError      `json:"errors"`
	Count        int              `json:"count"`
	Collisions   int              `json:"collisions"`
	ScannedAt    time.Time        `json:"scanned_at"`
}

// Service runs the presence-reconciliation engine: it matches detected
// canonical MACs against the roster index and turns matches into
// attendance records, exactly once per (student, date, class, teacher).
type Service struct {
	store   Store
	src     netscan.Source
	useDash bool

	mu    sync.Mutex
	locks map[string]*tupleLock
}

// NewService creates a service backed by a store and a snapshot source.
func NewService(store Store, src netscan.Source, useDash bool) *Service {
	return &Service{
		store:   store,
		src:     src,
		useDash: useDash,
		locks:   make(map[string]*tupleLock),
	}
}

// tupleLock guards one (student, date, class, teacher) key. The
// check-then-insert in MarkPresent is not atomic in the store, so
// concurrent scans for the same tuple serialize here. Entries are
// refcounted and dropped on release, so the map only holds in-flight
// marks rather than one mutex per student per day forever.
type tupleLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) lockTuple(key string) *tupleLock {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &tupleLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return l
}

func (s *Service) unlockTuple(key string, l *tupleLock) {
	l.mu.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()
}

// MarkPresent records the student present for today's class/teacher if
// no record exists yet. Returns true when a new record was written and
// false when the tuple was already marked.
func (s *Service) MarkPresent(ctx context.Context, sess session.Session, studentID int64) (bool, error) {
	if !sess.Valid() {
		return false, errors.New("teacher and class required")
	}
	day := dateOf(time.Now())
	key := fmt.Sprintf("%d|%s|%s|%s", studentID, day.Format("2006-01-02"), sess.Class, sess.Teacher)
	l := s.lockTuple(key)
	defer s.unlockTuple(key, l)

	exists, err := s.store.HasRecord(ctx, studentID, day, sess.Class, sess.Teacher)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	_, err = s.store.InsertRecord(ctx, Record{
		StudentID: studentID,
		Date:      day,
		Status:    StatusPresent,
		ClassName: sess.Class,
		Teacher:   sess.Teacher,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetStatus appends a manual Present/Absent entry. Manual entries are
// never deduplicated; the newest row is the current status.
func (s *Service) SetStatus(ctx context.Context, sess session.Session, studentID int64, status string) error {
	if !sess.Valid() {
		return errors.New("teacher and class required")
	}
	if status != StatusPresent && status != StatusAbsent {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.store.InsertRecord(ctx, Record{
		StudentID: studentID,
		Status:    status,
		ClassName: sess.Class,
		Teacher:   sess.Teacher,
	})
	return err
}

// PresentToday resolves the roster listing's present flag for each
// student: present only when the most recent row for today's tuple has
// status Present, the same rule the monthly grid applies. A manual
// Absent entry therefore shows as absent here too.
func (s *Service) PresentToday(ctx context.Context, sess session.Session, students []roster.Student) (map[int64]struct{}, error) {
	if !sess.Valid() {
		return nil, errors.New("teacher and class required")
	}
	day := dateOf(time.Now())
	present := make(map[int64]struct{}, len(students))
	for _, st := range students {
		status, found, err := s.store.LastStatusOn(ctx, st.ID, day, sess.Class, sess.Teacher)
		if err != nil {
			return nil, err
		}
		if found && status == StatusPresent {
			present[st.ID] = struct{}{}
		}
	}
	return present, nil
}

// Reconcile matches the roster index against the detected MAC set and
// marks every matched student present. A single student's write failure
// is recorded and the loop moves on; the scan always completes with a
// summary. Students not detected end up in none of the lists — absence
// is inferred, never written by a scan.
func (s *Service) Reconcile(ctx context.Context, sess session.Session, index map[string]roster.Student, detected map[string]struct{}) ScanResult {
	result := ScanResult{ScannedAt: time.Now()}

	result.DetectedMACs = make([]string, 0, len(detected))
	for mac := range detected {
		result.DetectedMACs = append(result.DetectedMACs, mac)
	}
	sort.Strings(result.DetectedMACs)

	matched := make([]roster.Student, 0, len(index))
	for mac, st := range index {
		if _, ok := detected[mac]; ok {
			matched = append(matched, st)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Roll < matched[j].Roll })

	for _, st := range matched {
		marked, err := s.MarkPresent(ctx, sess, st.ID)
		switch {
		case err != nil:
			log.Printf("mark failed for %s (%s): %v", st.Name, st.Roll, err)
			result.Errors = append(result.Errors, MarkError{Student: st, Err: err.Error()})
			metrics.MarkErrorsTotal.Inc()
		case marked:
			result.Marked = append(result.Marked, st)
		default:
			result.Already = append(result.Already, st)
		}
	}
	result.Count = len(result.Marked)
	return result
}

// Scan runs one full pass: load the roster, snapshot the neighbor
// table, normalize, reconcile. A failed roster load aborts the scan; a
// failed snapshot does not — it counts as zero detected devices.
func (s *Service) Scan(ctx context.Context, sess session.Session) (ScanResult, error) {
	if !sess.Valid() {
		return ScanResult{}, errors.New("teacher and class required")
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("failed").Inc()
		return ScanResult{}, fmt.Errorf("load roster: %w", err)
	}

	index, collisions := roster.BuildIndex(students, s.useDash)
	for _, c := range collisions {
		log.Printf("roster collision on %s: keeping %s (%s), excluding %s (%s)",
			c.MAC, c.Kept.Name, c.Kept.Roll, c.Excluded.Name, c.Excluded.Roll)
	}

	raw, err := s.src.Snapshot(ctx)
	if err != nil {
		log.Printf("neighbor table capture failed, treating as empty: %v", err)
		raw = ""
	}
	detected := macaddr.NormalizeSet(macaddr.Extract(raw), s.useDash)

	result := s.Reconcile(ctx, sess, index, detected)
	result.Collisions = len(collisions)

	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.StudentsMarkedTotal.Add(float64(result.Count))
	metrics.DetectedDevices.Set(float64(len(result.DetectedMACs)))
	return result, nil
}
