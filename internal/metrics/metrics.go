// Package metrics exports organize and Plex outcomes in the Prometheus text
// format so node_exporter's textfile collector can pick them up after each
// unattended run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tvshows"

// Recorder accumulates the values of one CLI invocation.
type Recorder struct {
	registry *prometheus.Registry

	subtitlesMoved  prometheus.Counter
	deleteFailures  prometheus.Counter
	unmatched       prometheus.Gauge
	episodesRemoved prometheus.Counter
	removeFailures  prometheus.Counter
	runDuration     prometheus.Gauge
	lastRun         prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// NewRecorder registers the tv-shows collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		subtitlesMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "subtitles_moved_total",
			Help:      "Subtitles copied next to their matching video.",
		}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "delete_failures_total",
			Help:      "Original subtitles that could not be removed after copying.",
		}),
		unmatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "unmatched_subtitles",
			Help:      "Subtitles with no candidate video in the last run.",
		}),
		episodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plex",
			Name:      "episodes_removed_total",
			Help:      "Watched episodes removed from Plex.",
		}),
		removeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plex",
			Name:      "remove_failures_total",
			Help:      "Watched episodes Plex refused to remove.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "duration_seconds",
			Help:      "Wall time of the last organize run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last organize run finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organize",
			Name:      "last_success",
			Help:      "1 when the last organize run finished without error.",
		}),
	}
	r.registry.MustRegister(
		r.subtitlesMoved,
		r.deleteFailures,
		r.unmatched,
		r.episodesRemoved,
		r.removeFailures,
		r.runDuration,
		r.lastRun,
		r.lastSuccess,
	)
	return r
}

// Organize records the outcome of one organize run.
func (r *Recorder) Organize(moved, failedDeletes, unmatched int, elapsed time.Duration, finished time.Time, err error) {
	if r == nil {
		return
	}
	r.subtitlesMoved.Add(float64(moved))
	r.deleteFailures.Add(float64(failedDeletes))
	r.unmatched.Set(float64(unmatched))
	r.runDuration.Set(elapsed.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
	if err != nil {
		r.lastSuccess.Set(0)
	} else {
		r.lastSuccess.Set(1)
	}
}

// Prune records the outcome of removing watched episodes.
func (r *Recorder) Prune(removed, failed int) {
	if r == nil {
		return
	}
	r.episodesRemoved.Add(float64(removed))
	r.removeFailures.Add(float64(failed))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically replaces path with the current values. An empty
// path disables the export.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
