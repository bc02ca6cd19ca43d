package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/gocampaign/internal/domain"
)

// InsertObservation appends a rank observation. Observations are an
// immutable time series: there is no conflict target and no deduplication.
func (r *Repository) InsertObservation(ctx context.Context, obs *domain.RankingObservation) error {
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ranking_observations (site_id, keyword_id, rank, url, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		obs.SiteID, obs.KeywordID, obs.Rank, obs.URL, obs.ObservedAt,
	).Scan(&obs.ID)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}

	return nil
}

// LatestObservation returns the most recent observation for a keyword, or
// ErrNotFound when the keyword has never been tracked.
func (r *Repository) LatestObservation(ctx context.Context, keywordID uuid.UUID) (*domain.RankingObservation, error) {
	obs := &domain.RankingObservation{}
	query := `
		SELECT id, site_id, keyword_id, rank, url, observed_at
		FROM ranking_observations
		WHERE keyword_id = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, obs, query, keywordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest observation: %w", err)
	}

	return obs, nil
}

// ListObservations returns a keyword's rank history, oldest first.
func (r *Repository) ListObservations(
	ctx context.Context,
	keywordID uuid.UUID,
	limit int,
) ([]domain.RankingObservation, error) {
	observations := []domain.RankingObservation{}
	query := `
		SELECT id, site_id, keyword_id, rank, url, observed_at
		FROM ranking_observations
		WHERE keyword_id = $1
		ORDER BY observed_at, id
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &observations, query, keywordID, limit); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	return observations, nil
}
