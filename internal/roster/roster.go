// Package roster holds the student roster and its canonical-MAC index.
package roster

import (
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/macaddr"
)

// Student is a registered student. MAC is stored raw, exactly as
// entered; matching always goes through the canonical form.
type Student struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Roll string `json:"roll"`
	MAC  string `json:"mac"`
}

// Collision reports two students whose registered MACs normalize to the
// same canonical value. Only Kept is reachable through the index.
type Collision struct {
	MAC      string  `json:"mac"`
	Kept     Student `json:"kept"`
	Excluded Student `json:"excluded"`
}

// BuildIndex maps canonical MAC to student. Students whose MAC does not
// normalize are excluded from the index (they stay visible in roster
// listings, just unreachable by scan matching). On a canonical
// collision the first student keeps the entry and later duplicates are
// reported, so a duplicate registration cannot silently shadow an
// earlier one.
func BuildIndex(students []Student, useDash bool) (map[string]Student, []Collision) {
	index := make(map[string]Student, len(students))
	var collisions []Collision
	for _, st := range students {
		mac, ok := macaddr.Normalize(st.MAC, useDash)
		if !ok {
			continue
		}
		if prev, dup := index[mac]; dup {
			collisions = append(collisions, Collision{MAC: mac, Kept: prev, Excluded: st})
			continue
		}
		index[mac] = st
	}
	return index, collisions
}

// CanonicalMAC returns the student's canonical MAC, or the raw value
// when it does not normalize. Display helper for roster listings.
func CanonicalMAC(st Student, useDash bool) string {
	if mac, ok := macaddr.Normalize(st.MAC, useDash); ok {
		return mac
	}
	return st.MAC
}
