package scheduler

import (
	"context"
	"log/slog"

	"github.com/nsetools/project-scheduler/internal/metrics"
	"github.com/nsetools/project-scheduler/internal/repo"
	"github.com/robfig/cron/v3"
)

// Run starts the background progress rollup: on each tick every project's
// progress is recomputed as the average of its phase progress, so the stored
// rollup cannot drift from the phases clients edit. Blocks the calling
// goroutine; start it with `go scheduler.Run(...)`.
func Run(projectRepo *repo.ProjectRepo, cronSpec string) error {
	c := cron.New()

	_, err := c.AddFunc(cronSpec, func() {
		updated, err := projectRepo.SyncProgress(context.Background())
		if err != nil {
			slog.Error("progress sync failed", "err", err)
			metrics.ProgressSyncRuns.WithLabelValues("error").Inc()
			return
		}
		metrics.ProgressSyncRuns.WithLabelValues("ok").Inc()
		if updated > 0 {
			slog.Info("progress sync", "projects_updated", updated)
		}
	})
	if err != nil {
		return err
	}

	c.Run()
	return nil
}
