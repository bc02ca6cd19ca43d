package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/gocampaign/internal/domain"
)

// KeywordDefaults holds the derived attributes applied when a keyword is
// first created or refreshed.
type KeywordDefaults struct {
	SearchVolume int
	Difficulty   int
	Intent       string
	Source       string
}

// EnsureKeyword returns the keyword for (siteID, text) or creates it with
// the given defaults. The keyword text is normalized before use. A refresh
// for an existing keyword overwrites the derived attributes in place.
//
// The single INSERT ... ON CONFLICT DO UPDATE races safely against
// concurrent callers: the uniqueness constraint on (site_id, keyword) is the
// safeguard, not a prior existence check.
func (r *Repository) EnsureKeyword(
	ctx context.Context,
	siteID uuid.UUID,
	text string,
	defaults KeywordDefaults,
) (*domain.Keyword, error) {
	normalized := domain.NormalizeKeyword(text)
	if normalized == "" {
		return nil, fmt.Errorf("ensure keyword: %w", domain.ErrNotFound)
	}

	kw := &domain.Keyword{}
	now := time.Now().UTC()

	query := `
		INSERT INTO keywords
			(id, site_id, keyword, search_volume, difficulty, intent, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (site_id, keyword) DO UPDATE SET
			search_volume = EXCLUDED.search_volume,
			difficulty = EXCLUDED.difficulty,
			intent = EXCLUDED.intent,
			updated_at = EXCLUDED.updated_at
		RETURNING id, site_id, keyword, search_volume, difficulty, intent, source, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		uuid.New(), siteID, normalized,
		defaults.SearchVolume, defaults.Difficulty, defaults.Intent, defaults.Source,
		now,
	).StructScan(kw)
	if err != nil {
		return nil, fmt.Errorf("ensure keyword: %w", err)
	}

	return kw, nil
}

// GetKeyword retrieves a keyword by id.
func (r *Repository) GetKeyword(ctx context.Context, id uuid.UUID) (*domain.Keyword, error) {
	kw := &domain.Keyword{}
	query := `
		SELECT id, site_id, keyword, search_volume, difficulty, intent, source, created_at, updated_at
		FROM keywords
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, kw, query, id); err != nil {
		return nil, fmt.Errorf("get keyword: %w", err)
	}

	return kw, nil
}

// ListKeywords returns a site's keywords in discovery order, bounded by limit.
func (r *Repository) ListKeywords(ctx context.Context, siteID uuid.UUID, limit int) ([]domain.Keyword, error) {
	keywords := []domain.Keyword{}
	query := `
		SELECT id, site_id, keyword, search_volume, difficulty, intent, source, created_at, updated_at
		FROM keywords
		WHERE site_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &keywords, query, siteID, limit); err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}

	return keywords, nil
}
