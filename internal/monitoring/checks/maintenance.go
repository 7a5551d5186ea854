package checks

import (
	"context"
	"strings"
	"time"

	"github.com/mindfulpath/practicesite/internal/monitoring"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
)

// MaintenanceSource reports the site maintenance switch.
type MaintenanceSource interface {
	Maintenance(ctx context.Context) (siteconfig.Maintenance, error)
}

const defaultJobMaxAge = 6 * time.Hour

// Jobs reports down when a background job keeps failing and degraded when one has not run
// within maxAge.
func Jobs(tracker *monitoring.JobTracker, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultJobMaxAge
	}

	return monitoring.NewCheck("jobs", func(ctx context.Context) monitoring.ProbeResult {
		if tracker == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no job tracker"}
		}

		jobs := tracker.Snapshot()
		if len(jobs) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no job runs yet"}
		}

		now := time.Now()
		status := monitoring.StatusUp
		var problems []string
		for _, job := range jobs {
			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDown
				problems = append(problems, job.Job+": "+job.LastError)
				continue
			}
			if now.Sub(job.LastRunAt) > maxAge {
				if status == monitoring.StatusUp {
					status = monitoring.StatusDegraded
				}
				problems = append(problems, job.Job+": last run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}
		return monitoring.ProbeResult{Status: status, Details: strings.Join(problems, "; ")}
	})
}

// SiteMaintenance reports degraded while the public site is switched into maintenance mode.
func SiteMaintenance(source MaintenanceSource) monitoring.Check {
	return monitoring.NewCheck("site", func(ctx context.Context) monitoring.ProbeResult {
		if source == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp}
		}
		m, err := source.Maintenance(ctx)
		if err != nil {
			return monitoring.ResultFromError("site", err, 0)
		}
		if m.Enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "maintenance mode enabled"}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
