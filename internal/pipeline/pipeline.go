// Package pipeline sequences the campaign stages: extraction, research,
// generation, optimization, publishing, and rank tracking, plus the
// independently scheduled outreach track. Stages run sequentially, pass
// forward only the items that succeeded, and contain item failures at the
// item boundary so one bad keyword never sinks a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/gocampaign/internal/database"
	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/events"
	"github.com/jonesrussell/gocampaign/internal/external"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/metrics"
	"github.com/jonesrussell/gocampaign/internal/retry"
	"github.com/jonesrussell/gocampaign/internal/scheduler"
	"github.com/jonesrussell/gocampaign/internal/tracking"
)

const tracerName = "gocampaign/pipeline"

// Store is the persistence surface the orchestrator drives.
type Store interface {
	GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error)
	ListKeywords(ctx context.Context, siteID uuid.UUID, limit int) ([]domain.Keyword, error)
	EnsureKeyword(ctx context.Context, siteID uuid.UUID, text string, defaults database.KeywordDefaults) (*domain.Keyword, error)
	ReplaceResearch(ctx context.Context, rec *domain.ResearchRecord) error
	GetResearch(ctx context.Context, keywordID uuid.UUID) (*domain.ResearchRecord, error)
	CreateArtifact(ctx context.Context, artifact *domain.ContentArtifact) error
	GetArtifactByKeyword(ctx context.Context, siteID, keywordID uuid.UUID) (*domain.ContentArtifact, error)
	UpdateArtifactBody(ctx context.Context, id uuid.UUID, body string, wordCount int, qualityScore float64, status domain.ArtifactStatus) error
	MarkArtifactPublished(ctx context.Context, id uuid.UUID, externalID, publishedURL string) error
	MarkArtifactIndexed(ctx context.Context, id uuid.UUID) error
	InsertObservation(ctx context.Context, obs *domain.RankingObservation) error
	LatestObservation(ctx context.Context, keywordID uuid.UUID) (*domain.RankingObservation, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.OutreachCampaign, error)
	ListTargets(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.OutreachTarget, error)
	GetMessageByTarget(ctx context.Context, targetID uuid.UUID) (*domain.OutreachMessage, error)
}

// Capabilities bundles the external services a run invokes.
type Capabilities struct {
	Topics       external.TopicExtractor
	Research     external.Researcher
	Intelligence external.ContentIntelligence
	RankLookup   external.RankLookup
	Channels     []external.Channel
	Mailer       external.Mailer
}

// Config carries the orchestration knobs.
type Config struct {
	// ItemCap bounds how many keywords uncapped stages handle per run.
	ItemCap int
	// GenerationCap bounds generated articles per run; the first K items in
	// arrival order are processed, the rest wait for the next run.
	GenerationCap int
	// OutreachCap bounds sends per outreach run, same first-K policy.
	OutreachCap int
	// RankThreshold flags content for optimization when rank exceeds it.
	RankThreshold int
	// Retry configures the backoff for transient external failures.
	Retry retry.Config
}

// RunRequest scopes one pipeline invocation.
type RunRequest struct {
	SiteID  uuid.UUID `json:"site_id"`
	ItemCap int       `json:"item_cap,omitempty"`
	Goals   []string  `json:"goals,omitempty"`
}

// Orchestrator runs the content track and the outreach track.
type Orchestrator struct {
	store     Store
	caps      Capabilities
	limiter   *scheduler.Limiter
	tracker   *tracking.Tracker
	publisher *events.Publisher
	metrics   *metrics.Metrics
	config    Config
	log       logger.Logger
	tracer    trace.Tracer
}

// New creates an Orchestrator. publisher and metrics may be nil.
func New(
	store Store,
	caps Capabilities,
	limiter *scheduler.Limiter,
	tracker *tracking.Tracker,
	publisher *events.Publisher,
	m *metrics.Metrics,
	config Config,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		caps:      caps,
		limiter:   limiter,
		tracker:   tracker,
		publisher: publisher,
		metrics:   m,
		config:    config,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Run executes the content track for one site. A missing site aborts the
// whole invocation; everything after that is partial-failure territory and
// lands in the report instead of the returned error.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*domain.PipelineReport, error) {
	site, err := o.store.GetSite(ctx, req.SiteID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSiteNotFound, req.SiteID)
	}
	if err != nil {
		return nil, fmt.Errorf("load site %s: %w", req.SiteID, err)
	}

	itemCap := req.ItemCap
	if itemCap <= 0 {
		itemCap = o.config.ItemCap
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("site_id", site.ID.String()),
			attribute.Int("item_cap", itemCap),
		))
	defer span.End()

	o.runStarted()
	report := domain.NewPipelineReport(site.ID)
	o.log.Info("pipeline run started",
		logger.String("site_id", site.ID.String()),
		logger.String("domain", site.Domain),
		logger.Int("item_cap", itemCap))

	keywords := o.runExtraction(ctx, report, site, req.Goals, itemCap)
	keywords = o.runResearch(ctx, report, keywords)
	generated := o.runGeneration(ctx, report, site, keywords)
	optimized := o.runOptimization(ctx, report, site, generated)
	published := o.runPublishing(ctx, report, site, optimized)
	o.runRankTracking(ctx, report, site, published)

	report.Finalize()
	o.runFinished(report)
	o.log.Info("pipeline run finished",
		logger.String("site_id", site.ID.String()),
		logger.Int("succeeded", report.Totals.Succeeded),
		logger.Int("failed", report.Totals.Failed))

	return report, nil
}

// invoke runs one external call through the pacing limiter and the retry
// wrapper. Every stage funnels its external calls through here so the
// backpressure policy lives in exactly one place.
func (o *Orchestrator) invoke(ctx context.Context, fn func() error) error {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return retry.Do(ctx, o.config.Retry, fn)
}

// stageSpan opens a per-stage span and returns a closure that records the
// stage duration on the way out.
func (o *Orchestrator) stageSpan(ctx context.Context, stage domain.Stage) (context.Context, func()) {
	ctx, span := o.tracer.Start(ctx, "pipeline.stage."+string(stage))
	start := time.Now()

	return ctx, func() {
		if o.metrics != nil {
			o.metrics.RecordStageDuration(string(stage), time.Since(start).Seconds())
		}
		span.End()
	}
}

func (o *Orchestrator) recordItem(report *domain.PipelineReport, stage domain.Stage, itemKey string, err error) {
	stageReport := report.PerStage[stage]
	if err == nil {
		stageReport.RecordSuccess()
		if o.metrics != nil {
			o.metrics.RecordStageItem(string(stage), true)
		}
		return
	}

	stageReport.RecordFailure(stage, itemKey, err)
	if o.metrics != nil {
		o.metrics.RecordStageItem(string(stage), false)
	}
	o.log.Warn("stage item failed",
		logger.String("stage", string(stage)),
		logger.String("item", itemKey),
		logger.Error(err))
}

func (o *Orchestrator) runStarted() {
	if o.metrics != nil {
		o.metrics.RunStarted()
	}
}

func (o *Orchestrator) runFinished(report *domain.PipelineReport) {
	if o.metrics == nil {
		return
	}

	result := "clean"
	if report.Totals.Failed > 0 {
		result = "partial"
	}
	o.metrics.RunFinished(result)
}

// capped returns the first k items in arrival order. Items beyond the cap
// wait for a later run; they are not failures.
func capped[T any](items []T, k int) []T {
	if k > 0 && len(items) > k {
		return items[:k]
	}

	return items
}
