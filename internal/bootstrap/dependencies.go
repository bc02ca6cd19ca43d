package bootstrap

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/database"
	"github.com/jonesrussell/gocampaign/internal/events"
	"github.com/jonesrussell/gocampaign/internal/external"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/metrics"
	"github.com/jonesrussell/gocampaign/internal/pipeline"
	"github.com/jonesrussell/gocampaign/internal/retry"
	"github.com/jonesrussell/gocampaign/internal/scheduler"
	"github.com/jonesrussell/gocampaign/internal/storage"
	"github.com/jonesrussell/gocampaign/internal/tracking"
)

// Engagement event buffering.
const (
	eventBufferCapacity = 1024
	eventFlushInterval  = 5 * time.Second
	eventFlushThreshold = 100
)

// SetupDatabase creates the PostgreSQL connection pool.
func SetupDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, connErr := database.NewPostgresConnection(cfg.Database.DSN())
	if connErr != nil {
		return nil, fmt.Errorf("postgres connection: %w", connErr)
	}

	return db, nil
}

// Dependencies bundles the wired application components.
type Dependencies struct {
	DB           *sqlx.DB
	Repo         *database.Repository
	Tracker      *tracking.Tracker
	Orchestrator *pipeline.Orchestrator
	Mailbox      external.Mailbox
	EventLog     *storage.EventLog
	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics

	redisClient *redis.Client
	log         logger.Logger
}

// Close stops the background components in reverse dependency order.
func (d *Dependencies) Close() {
	d.EventLog.Stop()
	if d.redisClient != nil {
		if closeErr := d.redisClient.Close(); closeErr != nil {
			d.log.Error("Failed to close redis client", logger.Error(closeErr))
		}
	}
}

// SetupDependencies wires the repository, tracker, external capabilities, and
// orchestrator together.
func SetupDependencies(cfg *config.Config, db *sqlx.DB, log logger.Logger) (*Dependencies, error) {
	caps, capsErr := setupCapabilities(cfg, log)
	if capsErr != nil {
		return nil, capsErr
	}

	repo := database.NewRepository(db)

	buffer := storage.NewBuffer(eventBufferCapacity)
	eventLog := storage.NewEventLog(db.DB, buffer, log, eventFlushInterval, eventFlushThreshold)
	eventLog.Start()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	signer := tracking.NewSigner(
		cfg.Tracking.HMACSecret,
		cfg.Tracking.BaseURL,
		cfg.Tracking.SignatureLength,
	)
	tracker := tracking.NewTracker(repo, signer, tracking.NewMeteredSink(buffer, m), log)

	// Redis is a best-effort notification bus: if it is unreachable the
	// engine still runs, it just stops announcing published content.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		client, redisErr := events.NewClient(cfg.Redis)
		if redisErr != nil {
			log.Warn("Redis unavailable, content events disabled", logger.Error(redisErr))
		} else {
			redisClient = client
		}
	}
	publisher := events.NewPublisher(redisClient, cfg.Redis.Channel, log)

	limiter := scheduler.NewLimiter(cfg.Pipeline.CallsPerSecond, cfg.Pipeline.CallBurst, log)

	caps.Mailer = external.NewMailClient(cfg.Providers.Mail.BaseURL, cfg.Providers.Mail.APIKey, signer)

	orchestrator := pipeline.New(
		repo, *caps, limiter, tracker, publisher, m,
		pipeline.Config{
			ItemCap:       cfg.Pipeline.ItemCap,
			GenerationCap: cfg.Pipeline.GenerationCap,
			OutreachCap:   cfg.Pipeline.OutreachCap,
			RankThreshold: cfg.Pipeline.RankThreshold,
			Retry: retry.Config{
				MaxAttempts:  cfg.Pipeline.RetryAttempts,
				InitialDelay: cfg.Pipeline.RetryDelay,
			},
		},
		log,
	)

	return &Dependencies{
		DB:           db,
		Repo:         repo,
		Tracker:      tracker,
		Orchestrator: orchestrator,
		Mailbox:      external.NewMailboxClient(cfg.Providers.Mail.BaseURL, cfg.Providers.Mail.APIKey),
		EventLog:     eventLog,
		Registry:     registry,
		Metrics:      m,
		redisClient:  redisClient,
		log:          log,
	}, nil
}

// setupCapabilities builds the external provider clients. Intelligence, rank
// lookup, mail, and at least one publishing channel are required; the
// orchestrator has no notion of a missing capability.
func setupCapabilities(cfg *config.Config, log logger.Logger) (*pipeline.Capabilities, error) {
	if !cfg.Providers.Intelligence.Enabled() {
		return nil, fmt.Errorf("providers.intelligence.base_url is required")
	}
	if !cfg.Providers.RankLookup.Enabled() {
		return nil, fmt.Errorf("providers.rank_lookup.base_url is required")
	}
	if !cfg.Providers.Mail.Enabled() {
		return nil, fmt.Errorf("providers.mail.base_url is required")
	}

	intelligence := external.NewIntelligenceClient(cfg.Providers.Intelligence.BaseURL, log)

	var channels []external.Channel
	if cfg.Providers.CMS.Enabled() {
		channels = append(channels, external.NewCMSChannel(cfg.Providers.CMS.BaseURL, cfg.Providers.CMS.APIKey))
	}
	if cfg.Providers.Network.Enabled() {
		channels = append(channels, external.NewNetworkChannel(cfg.Providers.Network.BaseURL, cfg.Providers.Network.APIKey))
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one publishing channel (providers.cms or providers.network) is required")
	}

	return &pipeline.Capabilities{
		Topics:       intelligence,
		Research:     intelligence,
		Intelligence: intelligence,
		RankLookup:   external.NewRankClient(cfg.Providers.RankLookup.BaseURL),
		Channels:     channels,
	}, nil
}
