package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/mindfulpath/practicesite/pkg/metrics"
)

// JobStats summarises the runs of one maintenance job.
type JobStats struct {
	Job                 string        `json:"job"`
	TotalRuns           uint64        `json:"total_runs"`
	Failures            uint64        `json:"failures"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
}

// JobTracker records maintenance job outcomes. Its Observe method plugs into
// maintenance.WithObserver.
type JobTracker struct {
	mu   sync.Mutex
	jobs map[string]*JobStats
	now  func() time.Time
}

// NewJobTracker returns an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: make(map[string]*JobStats), now: time.Now}
}

// Observe records one finished run.
func (t *JobTracker) Observe(job string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()
	metrics.MaintenanceDuration.WithLabelValues(job).Observe(elapsed.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	stats, ok := t.jobs[job]
	if !ok {
		stats = &JobStats{Job: job}
		t.jobs[job] = stats
	}
	stats.TotalRuns++
	stats.LastRunAt = t.now()
	stats.LastDuration = elapsed
	if err != nil {
		stats.Failures++
		stats.ConsecutiveFailures++
		stats.LastError = err.Error()
		return
	}
	stats.ConsecutiveFailures = 0
	stats.LastError = ""
}

// Snapshot returns a copy of every job's stats sorted by name.
func (t *JobTracker) Snapshot() []JobStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]JobStats, 0, len(t.jobs))
	for _, stats := range t.jobs {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
