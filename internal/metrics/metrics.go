// Package metrics exposes prometheus collectors for the scan pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts reconcile passes, by outcome.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_scans_total",
		Help: "Number of network scan passes executed.",
	}, []string{"outcome"})

	// StudentsMarkedTotal counts newly marked Present records.
	StudentsMarkedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_students_marked_total",
		Help: "Number of students newly marked present by scans.",
	})

	// MarkErrorsTotal counts per-student write failures during scans.
	MarkErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_mark_errors_total",
		Help: "Number of per-student attendance write failures.",
	})

	// DetectedDevices holds the device count of the most recent scan.
	DetectedDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attendance_detected_devices",
		Help: "Devices seen in the most recent ARP snapshot.",
	})
)
