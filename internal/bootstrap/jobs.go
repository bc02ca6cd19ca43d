package bootstrap

import (
	"context"

	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/scheduler"
)

// SetupScheduler registers the periodic jobs: the inbox scan that correlates
// replies, and the rank scan that refreshes observations for every active
// site.
func SetupScheduler(cfg *config.Config, deps *Dependencies, log logger.Logger) *scheduler.Scheduler {
	jobs := scheduler.New(cfg.Pipeline.RunTimeout, log)

	jobs.AddEvery("inbox_scan", cfg.Tracking.InboxScanInterval, func(ctx context.Context) error {
		applied, scanErr := deps.Tracker.ScanInbox(ctx, deps.Mailbox)
		if scanErr != nil {
			return scanErr
		}
		if applied > 0 {
			if deps.Metrics != nil {
				deps.Metrics.RecordRepliesApplied(applied)
			}
			log.Info("Inbox scan applied replies", logger.Int("applied", applied))
		}
		return nil
	})

	jobs.AddEvery("rank_scan", cfg.Tracking.RankScanInterval, func(ctx context.Context) error {
		sites, listErr := deps.Repo.ListActiveSites(ctx)
		if listErr != nil {
			return listErr
		}
		for _, site := range sites {
			if trackErr := deps.Orchestrator.TrackSite(ctx, site.ID); trackErr != nil {
				log.Error("Rank scan failed for site",
					logger.String("site_id", site.ID.String()),
					logger.String("domain", site.Domain),
					logger.Error(trackErr),
				)
			}
		}
		return nil
	})

	return jobs
}
