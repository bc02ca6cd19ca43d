package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/database"
	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/events"
	"github.com/jonesrussell/gocampaign/internal/external"
	"github.com/jonesrussell/gocampaign/internal/links"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/ranking"
)

// runExtraction discovers candidate keywords and ensures each one exists in
// the store. If the extraction capability fails wholesale, the run falls back
// to the site's already-persisted keywords so the rest of the pipeline still
// does useful work.
func (o *Orchestrator) runExtraction(
	ctx context.Context,
	report *domain.PipelineReport,
	site *domain.Site,
	goals []string,
	itemCap int,
) []domain.Keyword {
	ctx, done := o.stageSpan(ctx, domain.StageExtraction)
	defer done()

	var suggestions []external.TopicSuggestion
	err := o.invoke(ctx, func() error {
		var extractErr error
		suggestions, extractErr = o.caps.Topics.ExtractTopics(ctx, site.Domain, goals)
		return extractErr
	})
	if err != nil {
		o.recordItem(report, domain.StageExtraction, site.Domain, err)

		persisted, listErr := o.store.ListKeywords(ctx, site.ID, itemCap)
		if listErr != nil {
			o.log.Error("extraction fallback failed", logger.Error(listErr))
			return nil
		}

		return persisted
	}

	survivors := make([]domain.Keyword, 0, len(suggestions))
	for _, suggestion := range capped(suggestions, itemCap) {
		kw, ensureErr := o.store.EnsureKeyword(ctx, site.ID, suggestion.Keyword, database.KeywordDefaults{
			SearchVolume: suggestion.SearchVolume,
			Difficulty:   suggestion.Difficulty,
			Intent:       suggestion.Intent,
			Source:       "extraction",
		})
		o.recordItem(report, domain.StageExtraction, suggestion.Keyword, ensureErr)
		if ensureErr != nil {
			continue
		}

		survivors = append(survivors, *kw)
	}

	return survivors
}

// runResearch refreshes the competitive snapshot for each keyword. The
// snapshot is replaced in place; re-running research is always safe.
func (o *Orchestrator) runResearch(
	ctx context.Context,
	report *domain.PipelineReport,
	keywords []domain.Keyword,
) []domain.Keyword {
	ctx, done := o.stageSpan(ctx, domain.StageResearch)
	defer done()

	survivors := make([]domain.Keyword, 0, len(keywords))
	for i := range keywords {
		kw := keywords[i]

		var result *external.ResearchResult
		err := o.invoke(ctx, func() error {
			var researchErr error
			result, researchErr = o.caps.Research.Research(ctx, kw.Keyword)
			return researchErr
		})
		if err == nil {
			err = o.store.ReplaceResearch(ctx, &domain.ResearchRecord{
				KeywordID:      kw.ID,
				CompetitorURLs: result.CompetitorURLs,
				AvgWordCount:   result.AvgWordCount,
				ContentGaps:    result.ContentGaps,
			})
		}

		o.recordItem(report, domain.StageResearch, kw.Keyword, err)
		if err != nil {
			continue
		}

		survivors = append(survivors, kw)
	}

	return survivors
}

// runGeneration produces one artifact per keyword, capped at the first K
// items in arrival order. A keyword whose artifact already exists is
// forwarded without regenerating, which is what makes an aborted run safe to
// resume.
func (o *Orchestrator) runGeneration(
	ctx context.Context,
	report *domain.PipelineReport,
	site *domain.Site,
	keywords []domain.Keyword,
) []domain.Keyword {
	ctx, done := o.stageSpan(ctx, domain.StageGeneration)
	defer done()

	survivors := make([]domain.Keyword, 0, len(keywords))
	for i := range capped(keywords, o.config.GenerationCap) {
		kw := keywords[i]

		_, err := o.store.GetArtifactByKeyword(ctx, site.ID, kw.ID)
		if err == nil {
			o.recordItem(report, domain.StageGeneration, kw.Keyword, nil)
			survivors = append(survivors, kw)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			o.recordItem(report, domain.StageGeneration, kw.Keyword, err)
			continue
		}

		genErr := o.generateArtifact(ctx, site, kw)
		o.recordItem(report, domain.StageGeneration, kw.Keyword, genErr)
		if genErr != nil {
			continue
		}

		survivors = append(survivors, kw)
	}

	return survivors
}

func (o *Orchestrator) generateArtifact(ctx context.Context, site *domain.Site, kw domain.Keyword) error {
	research, err := o.store.GetResearch(ctx, kw.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	var content *external.GeneratedContent
	err = o.invoke(ctx, func() error {
		var genErr error
		content, genErr = o.caps.Intelligence.Generate(ctx, external.GenerationRequest{
			Topic:    kw.Keyword,
			Research: research,
		})
		return genErr
	})
	if err != nil {
		return err
	}

	body := renderBody(content)
	artifact := &domain.ContentArtifact{
		SiteID:    site.ID,
		KeywordID: kw.ID,
		Title:     content.Title,
		Body:      body,
		WordCount: countWords(body),
	}

	createErr := o.store.CreateArtifact(ctx, artifact)
	if errors.Is(createErr, domain.ErrAlreadyExists) {
		// Lost a race with a concurrent run for the same pair. The existing
		// artifact wins; this generation is discarded.
		return nil
	}

	return createErr
}

// renderBody flattens generated sections into a markdown document.
func renderBody(content *external.GeneratedContent) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(content.Title)
	sb.WriteString("\n")

	for _, section := range content.Sections {
		sb.WriteString("\n## ")
		sb.WriteString(section.Heading)
		sb.WriteString("\n\n")
		sb.WriteString(section.Body)
		sb.WriteString("\n")
	}

	return sb.String()
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// runOptimization rewrites each artifact with internal link insertions and a
// refreshed quality score, advancing it to optimizing.
func (o *Orchestrator) runOptimization(
	ctx context.Context,
	report *domain.PipelineReport,
	site *domain.Site,
	keywords []domain.Keyword,
) []domain.Keyword {
	ctx, done := o.stageSpan(ctx, domain.StageOptimization)
	defer done()

	survivors := make([]domain.Keyword, 0, len(keywords))
	for i := range keywords {
		kw := keywords[i]

		err := o.optimizeArtifact(ctx, site, kw)
		o.recordItem(report, domain.StageOptimization, kw.Keyword, err)
		if err != nil {
			continue
		}

		survivors = append(survivors, kw)
	}

	return survivors
}

func (o *Orchestrator) optimizeArtifact(ctx context.Context, site *domain.Site, kw domain.Keyword) error {
	artifact, err := o.store.GetArtifactByKeyword(ctx, site.ID, kw.ID)
	if err != nil {
		return err
	}

	suggestions, err := o.linkSuggestions(ctx, site, kw)
	if err != nil {
		return err
	}

	body := links.Insert(artifact.Body, suggestions)
	wordCount := countWords(body)

	var research *domain.ResearchRecord
	if rec, researchErr := o.store.GetResearch(ctx, kw.ID); researchErr == nil {
		research = rec
	}

	return o.store.UpdateArtifactBody(
		ctx, artifact.ID, body, wordCount,
		qualityScore(wordCount, research), domain.ArtifactOptimizing,
	)
}

// linkSuggestions builds internal-linking suggestions from the site's other
// published artifacts: each published keyword becomes an anchor pointing at
// its live URL.
func (o *Orchestrator) linkSuggestions(
	ctx context.Context,
	site *domain.Site,
	current domain.Keyword,
) ([]links.Suggestion, error) {
	siteKeywords, err := o.store.ListKeywords(ctx, site.ID, o.config.ItemCap)
	if err != nil {
		return nil, err
	}

	var suggestions []links.Suggestion
	for i := range siteKeywords {
		other := siteKeywords[i]
		if other.ID == current.ID {
			continue
		}

		artifact, artErr := o.store.GetArtifactByKeyword(ctx, site.ID, other.ID)
		if artErr != nil || artifact.PublishedURL == "" {
			continue
		}

		suggestions = append(suggestions, links.Suggestion{
			Anchor: other.Keyword,
			Target: artifact.PublishedURL,
		})
	}

	return suggestions, nil
}

// qualityScore is a documented default heuristic, not a derived model: score
// approaches 100 as the article reaches the competitive average word count.
func qualityScore(wordCount int, research *domain.ResearchRecord) float64 {
	const defaultScore = 75.0

	if research == nil || research.AvgWordCount <= 0 {
		return defaultScore
	}

	ratio := float64(wordCount) / float64(research.AvgWordCount)
	if ratio > 1 {
		ratio = 1
	}

	return ratio * 100
}

// runPublishing pushes each artifact to every configured channel. Channels
// are independent: one failing never blocks or rolls back another. An
// artifact already at published or beyond is forwarded untouched, so a
// resumed run cannot double-publish.
func (o *Orchestrator) runPublishing(
	ctx context.Context,
	report *domain.PipelineReport,
	site *domain.Site,
	keywords []domain.Keyword,
) []domain.Keyword {
	ctx, done := o.stageSpan(ctx, domain.StagePublishing)
	defer done()

	survivors := make([]domain.Keyword, 0, len(keywords))
	for i := range keywords {
		kw := keywords[i]

		err := o.publishArtifact(ctx, site, kw)
		o.recordItem(report, domain.StagePublishing, kw.Keyword, err)
		if err != nil {
			continue
		}

		survivors = append(survivors, kw)
	}

	return survivors
}

func (o *Orchestrator) publishArtifact(ctx context.Context, site *domain.Site, kw domain.Keyword) error {
	artifact, err := o.store.GetArtifactByKeyword(ctx, site.ID, kw.ID)
	if err != nil {
		return err
	}

	if !artifact.Status.Before(domain.ArtifactPublished) {
		o.log.Debug("artifact already published, skipping",
			logger.String("keyword", kw.Keyword),
			logger.String("status", string(artifact.Status)))
		return nil
	}

	var (
		accepted    *external.PublishResult
		channelErrs []error
		channels    []string
	)
	for _, channel := range o.caps.Channels {
		var result *external.PublishResult
		channelErr := o.invoke(ctx, func() error {
			var publishErr error
			result, publishErr = channel.Publish(ctx, artifact)
			return publishErr
		})
		if channelErr != nil {
			channelErrs = append(channelErrs, fmt.Errorf("%s: %w", channel.Name(), channelErr))
			continue
		}

		channels = append(channels, channel.Name())
		if accepted == nil {
			accepted = result
		}
	}

	if accepted == nil {
		return fmt.Errorf("all channels failed: %w", errors.Join(channelErrs...))
	}

	if markErr := o.store.MarkArtifactPublished(ctx, artifact.ID, accepted.ExternalID, accepted.URL); markErr != nil {
		return markErr
	}

	o.publisher.PublishAsync(events.ContentPublishedEvent{
		SiteID:       site.ID,
		ArtifactID:   artifact.ID,
		Keyword:      kw.Keyword,
		PublishedURL: accepted.URL,
		Channels:     channels,
	})

	for _, channelErr := range channelErrs {
		o.log.Warn("channel publish failed",
			logger.String("keyword", kw.Keyword),
			logger.Error(channelErr))
	}

	return nil
}

// runRankTracking appends a fresh observation per keyword and classifies the
// movement. Finding the site ranked also advances the artifact to indexed.
func (o *Orchestrator) runRankTracking(
	ctx context.Context,
	report *domain.PipelineReport,
	site *domain.Site,
	keywords []domain.Keyword,
) {
	ctx, done := o.stageSpan(ctx, domain.StageRankTracking)
	defer done()

	for i := range keywords {
		kw := keywords[i]
		err := o.trackKeyword(ctx, site, kw)
		o.recordItem(report, domain.StageRankTracking, kw.Keyword, err)
	}
}

// TrackSite re-tracks every persisted keyword of a site outside a pipeline
// run. The periodic rank scan drives this.
func (o *Orchestrator) TrackSite(ctx context.Context, siteID uuid.UUID) error {
	site, err := o.store.GetSite(ctx, siteID)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrSiteNotFound, siteID)
	}

	keywords, err := o.store.ListKeywords(ctx, site.ID, o.config.ItemCap)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}

	for i := range keywords {
		if trackErr := o.trackKeyword(ctx, site, keywords[i]); trackErr != nil {
			o.log.Warn("rank re-track failed",
				logger.String("keyword", keywords[i].Keyword),
				logger.Error(trackErr))
		}
	}

	return nil
}

func (o *Orchestrator) trackKeyword(ctx context.Context, site *domain.Site, kw domain.Keyword) error {
	previousRank := 0
	if previous, prevErr := o.store.LatestObservation(ctx, kw.ID); prevErr == nil {
		previousRank = previous.Rank
	}

	var result *external.RankResult
	err := o.invoke(ctx, func() error {
		var lookupErr error
		result, lookupErr = o.caps.RankLookup.Lookup(ctx, site.Domain, kw.Keyword)
		return lookupErr
	})
	if err != nil {
		return err
	}

	obs := &domain.RankingObservation{
		SiteID:    site.ID,
		KeywordID: kw.ID,
		Rank:      result.Rank,
		URL:       result.URL,
	}
	if insertErr := o.store.InsertObservation(ctx, obs); insertErr != nil {
		return insertErr
	}

	signals := ranking.Classify(result.Rank, previousRank, kw.SearchVolume, o.config.RankThreshold)
	o.log.Info("rank observed",
		logger.String("keyword", kw.Keyword),
		logger.Int("rank", result.Rank),
		logger.Int("previous", previousRank),
		logger.String("trend", string(signals.Trend)),
		logger.String("priority", string(signals.Priority)),
		logger.Bool("needs_optimization", signals.NeedsOptimization))

	if result.Found {
		if artifact, artErr := o.store.GetArtifactByKeyword(ctx, site.ID, kw.ID); artErr == nil {
			if indexErr := o.store.MarkArtifactIndexed(ctx, artifact.ID); indexErr != nil {
				o.log.Warn("failed to mark artifact indexed", logger.Error(indexErr))
			}
		}
	}

	return nil
}
