package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/gocampaign/internal/handler"
	"github.com/jonesrussell/gocampaign/internal/middleware"
)

// RouteDeps carries the handlers and settings SetupRoutes wires together.
type RouteDeps struct {
	Pipeline  *handler.PipelineHandler
	Campaigns *handler.CampaignHandler
	Tracking  *handler.TrackingHandler
	Health    *handler.HealthHandler

	// Registry backs the /metrics endpoint. Nil disables it.
	Registry *prometheus.Registry

	// MaxHitsPerWindow and RateWindow limit public tracking traffic per IP.
	MaxHitsPerWindow int
	RateWindow       time.Duration
}

// SetupRoutes configures all routes. The management API is internal
// (service-to-service within the deployment network); the /t tracking routes
// are the only surface exposed to the public internet and get bot filtering
// plus rate limiting in front. ctx bounds the rate limiter's cleanup
// goroutine to the server's lifetime.
func SetupRoutes(ctx context.Context, router *gin.Engine, deps RouteDeps) {
	router.GET("/health", deps.Health.HealthCheck)
	router.GET("/health/ready", deps.Health.Readiness)

	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		))
	}

	tracked := router.Group("/t")
	tracked.Use(middleware.BotFilter())
	tracked.Use(middleware.RateLimiter(ctx, deps.MaxHitsPerWindow, deps.RateWindow))
	tracked.GET("/o/:id", deps.Tracking.HandleOpen)
	tracked.GET("/c", deps.Tracking.HandleClick)

	// Provider status callbacks authenticate by signature and arrive from
	// server infrastructure, so they bypass the bot filter.
	router.POST("/t/s", deps.Tracking.HandleStatus)

	v1 := router.Group("/api/v1")
	v1.POST("/pipeline/run", deps.Pipeline.RunPipeline)
	v1.POST("/outreach/:campaign_id/run", deps.Pipeline.RunOutreach)

	v1.POST("/sites", deps.Campaigns.CreateSite)
	v1.GET("/sites/:id", deps.Campaigns.GetSite)
	v1.POST("/campaigns", deps.Campaigns.CreateCampaign)
	v1.GET("/campaigns/:id", deps.Campaigns.GetCampaign)
	v1.POST("/campaigns/:id/targets", deps.Campaigns.AddTarget)
}
