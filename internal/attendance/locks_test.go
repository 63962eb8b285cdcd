package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/netscan"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/session"
)

// memStore is a thread-safe in-memory Store for lock behavior tests.
type memStore struct {
	mu      sync.Mutex
	records []Record
}

func (m *memStore) ListStudents(context.Context) ([]roster.Student, error) {
	return nil, nil
}

func (m *memStore) HasRecord(ctx context.Context, studentID int64, day time.Time, class, teacher string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Date.Equal(day) && rec.ClassName == class && rec.Teacher == teacher {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) LastStatusOn(ctx context.Context, studentID int64, day time.Time, class, teacher string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, found := "", false
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Date.Equal(day) && rec.ClassName == class && rec.Teacher == teacher {
			status, found = rec.Status, true
		}
	}
	return status, found, nil
}

func TestTupleLocksReleasedAfterMark(t *testing.T) {
	svc := NewService(&memStore{}, netscan.Static(""), false)
	sess := session.Session{Teacher: "Ms X", Class: "Math"}
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		if _, err := svc.MarkPresent(ctx, sess, id); err != nil {
			t.Fatalf("MarkPresent(%d): %v", id, err)
		}
	}

	svc.mu.Lock()
	held := len(svc.locks)
	svc.mu.Unlock()
	if held != 0 {
		t.Errorf("lock map holds %d entries after marks completed, want 0", held)
	}
}

func TestConcurrentMarkSameTupleInsertsOnce(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, netscan.Static(""), false)
	sess := session.Session{Teacher: "Ms X", Class: "Math"}
	ctx := context.Background()

	var wg sync.WaitGroup
	marked := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.MarkPresent(ctx, sess, 7)
			if err != nil {
				t.Errorf("MarkPresent: %v", err)
				return
			}
			marked <- ok
		}()
	}
	wg.Wait()
	close(marked)

	newly := 0
	for ok := range marked {
		if ok {
			newly++
		}
	}
	if newly != 1 {
		t.Errorf("%d callers won the insert, want exactly 1", newly)
	}
	if len(store.records) != 1 {
		t.Errorf("records = %d, want 1", len(store.records))
	}

	svc.mu.Lock()
	held := len(svc.locks)
	svc.mu.Unlock()
	if held != 0 {
		t.Errorf("lock map holds %d entries after concurrent marks, want 0", held)
	}
}
