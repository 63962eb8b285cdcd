// Package netscan captures snapshots of the local neighbor/ARP table.
package netscan

import (
	"context"
	"os/exec"
	"runtime"
)

// Source returns the raw text of the current neighbor table. An empty
// string is a valid snapshot meaning no devices are visible.
type Source interface {
	Snapshot(ctx context.Context) (string, error)
}

// ARPTable reads the OS ARP cache by shelling out to the platform tool.
type ARPTable struct{}

// Snapshot runs the platform's ARP listing command and returns its
// combined output. Callers treat a failed capture as zero detected
// devices, so the error is advisory.
func (ARPTable) Snapshot(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows", "darwin":
		cmd = exec.CommandContext(ctx, "arp", "-a")
	default:
		cmd = exec.CommandContext(ctx, "sh", "-c", "ip neigh show || arp -a")
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Static is a fixed-text source for tests and dry runs.
type Static string

func (s Static) Snapshot(context.Context) (string, error) {
	return string(s), nil
}
