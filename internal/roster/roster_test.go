package roster_test

import (
	"testing"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
)

func TestBuildIndex(t *testing.T) {
	students := []roster.Student{
		{ID: 1, Name: "Asha", Roll: "01", MAC: "aa:bb:cc:dd:ee:01"},
		{ID: 2, Name: "Ben", Roll: "02", MAC: "AABB.CCDD.EE02"},
		{ID: 3, Name: "Cara", Roll: "03", MAC: "not a mac"},
	}
	index, collisions := roster.BuildIndex(students, false)
	if len(collisions) != 0 {
		t.Fatalf("unexpected collisions: %v", collisions)
	}
	if len(index) != 2 {
		t.Fatalf("index size = %d, want 2", len(index))
	}
	if st, ok := index["AA:BB:CC:DD:EE:02"]; !ok || st.ID != 2 {
		t.Errorf("dotted MAC did not resolve to student 2: %v %v", st, ok)
	}
	if _, ok := index["AA:BB:CC:DD:EE:01"]; !ok {
		t.Error("student 1 missing from index")
	}
}

func TestBuildIndexCollisionFirstWins(t *testing.T) {
	students := []roster.Student{
		{ID: 1, Roll: "01", MAC: "aa:bb:cc:dd:ee:ff"},
		{ID: 2, Roll: "02", MAC: "AA-BB-CC-DD-EE-FF"},
	}
	index, collisions := roster.BuildIndex(students, false)
	if len(index) != 1 {
		t.Fatalf("index size = %d, want 1", len(index))
	}
	if index["AA:BB:CC:DD:EE:FF"].ID != 1 {
		t.Error("first registered student should keep the index entry")
	}
	if len(collisions) != 1 {
		t.Fatalf("collisions = %d, want 1", len(collisions))
	}
	if collisions[0].Kept.ID != 1 || collisions[0].Excluded.ID != 2 {
		t.Errorf("collision report wrong: %+v", collisions[0])
	}
}

func TestCanonicalMAC(t *testing.T) {
	if got := roster.CanonicalMAC(roster.Student{MAC: "aabb.ccdd.ee01"}, false); got != "AA:BB:CC:DD:EE:01" {
		t.Errorf("CanonicalMAC = %q", got)
	}
	if got := roster.CanonicalMAC(roster.Student{MAC: "garbage"}, false); got != "garbage" {
		t.Errorf("CanonicalMAC fallback = %q", got)
	}
}
