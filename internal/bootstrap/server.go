package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocampaign/internal/api"
	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/handler"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

// SetupHTTPServer creates the HTTP server with all handlers wired. ctx
// bounds the lifetime of middleware background work.
func SetupHTTPServer(ctx context.Context, cfg *config.Config, deps *Dependencies, log logger.Logger) *api.Server {
	pipelineHandler := handler.NewPipelineHandler(deps.Orchestrator)
	campaignHandler := handler.NewCampaignHandler(deps.Repo)
	trackingHandler := handler.NewTrackingHandler(deps.Tracker, log, cfg.Tracking.MaxLinkAge)
	healthHandler := handler.NewHealthHandler(cfg.Service.Version, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		return deps.DB.PingContext(ctx)
	})

	return api.NewServer(cfg, log, func(router *gin.Engine) {
		api.SetupRoutes(ctx, router, api.RouteDeps{
			Pipeline:         pipelineHandler,
			Campaigns:        campaignHandler,
			Tracking:         trackingHandler,
			Health:           healthHandler,
			Registry:         deps.Registry,
			MaxHitsPerWindow: cfg.RateLimit.MaxHitsPerMinute,
			RateWindow:       time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		})
	})
}
