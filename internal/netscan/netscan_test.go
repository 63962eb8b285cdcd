package netscan_test

import (
	"context"
	"testing"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/macaddr"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/netscan"
)

func TestStaticSnapshot(t *testing.T) {
	src := netscan.Static("? (192.168.1.5) at aa:bb:cc:dd:ee:ff on en0")
	raw, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	set := macaddr.NormalizeSet(macaddr.Extract(raw), false)
	if _, ok := set["AA:BB:CC:DD:EE:FF"]; !ok {
		t.Errorf("detected set = %v", set)
	}
}

func TestEmptySnapshotMeansNoDevices(t *testing.T) {
	raw, err := netscan.Static("").Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if set := macaddr.NormalizeSet(macaddr.Extract(raw), false); len(set) != 0 {
		t.Errorf("empty snapshot produced %v", set)
	}
}
