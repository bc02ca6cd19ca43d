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

// ReplaceResearch overwrites the single current research record for a
// keyword. It represents "latest competitive snapshot", not a history:
// the (keyword_id) uniqueness constraint guarantees at most one row.
func (r *Repository) ReplaceResearch(ctx context.Context, rec *domain.ResearchRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.ResearchedAt.IsZero() {
		rec.ResearchedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO research_records
			(id, keyword_id, competitor_urls, avg_word_count, content_gaps, researched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (keyword_id) DO UPDATE SET
			competitor_urls = EXCLUDED.competitor_urls,
			avg_word_count = EXCLUDED.avg_word_count,
			content_gaps = EXCLUDED.content_gaps,
			researched_at = EXCLUDED.researched_at
	`

	_, err := r.db.ExecContext(
		ctx, query,
		rec.ID, rec.KeywordID, rec.CompetitorURLs, rec.AvgWordCount, rec.ContentGaps, rec.ResearchedAt,
	)
	if err != nil {
		return fmt.Errorf("replace research: %w", err)
	}

	return nil
}

// GetResearch retrieves the current research record for a keyword.
func (r *Repository) GetResearch(ctx context.Context, keywordID uuid.UUID) (*domain.ResearchRecord, error) {
	rec := &domain.ResearchRecord{}
	query := `
		SELECT id, keyword_id, competitor_urls, avg_word_count, content_gaps, researched_at
		FROM research_records
		WHERE keyword_id = $1
	`

	err := r.db.GetContext(ctx, rec, query, keywordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get research: %w", err)
	}

	return rec, nil
}
