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

// CreateArtifact creates one content artifact per (site, keyword) generation.
// A uniqueness conflict means an artifact already exists for the pair; the
// caller re-fetches with GetArtifactByKeyword instead of generating again.
func (r *Repository) CreateArtifact(ctx context.Context, artifact *domain.ContentArtifact) error {
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}
	now := time.Now().UTC()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	if artifact.Status == "" {
		artifact.Status = domain.ArtifactDraft
	}

	query := `
		INSERT INTO content_artifacts
			(id, site_id, keyword_id, title, body, status, word_count, quality_score,
			 external_id, published_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		artifact.ID, artifact.SiteID, artifact.KeywordID,
		artifact.Title, artifact.Body, artifact.Status,
		artifact.WordCount, artifact.QualityScore,
		artifact.ExternalID, artifact.PublishedURL,
		artifact.CreatedAt, artifact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create artifact: %w", err)
	}

	return nil
}

// GetArtifactByKeyword retrieves the artifact for a (site, keyword) pair.
func (r *Repository) GetArtifactByKeyword(
	ctx context.Context,
	siteID, keywordID uuid.UUID,
) (*domain.ContentArtifact, error) {
	artifact := &domain.ContentArtifact{}
	query := `
		SELECT id, site_id, keyword_id, title, body, status, word_count, quality_score,
		       external_id, published_url, created_at, updated_at
		FROM content_artifacts
		WHERE site_id = $1 AND keyword_id = $2
	`

	err := r.db.GetContext(ctx, artifact, query, siteID, keywordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	return artifact, nil
}

// UpdateArtifactBody rewrites the artifact body after optimization and moves
// the status forward. The status guard keeps the lattice monotonic even if
// two runs overlap.
func (r *Repository) UpdateArtifactBody(
	ctx context.Context,
	id uuid.UUID,
	body string,
	wordCount int,
	qualityScore float64,
	status domain.ArtifactStatus,
) error {
	query := `
		UPDATE content_artifacts
		SET body = $2,
		    word_count = $3,
		    quality_score = $4,
		    status = CASE WHEN status_rank(status) < status_rank($5) THEN $5 ELSE status END,
		    updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, body, wordCount, qualityScore, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update artifact body: %w", err)
	}

	return requireRow(res, "update artifact body")
}

// MarkArtifactPublished records channel acceptance and advances the status.
// Safe to replay: the status never regresses and ids are only filled once.
func (r *Repository) MarkArtifactPublished(
	ctx context.Context,
	id uuid.UUID,
	externalID, publishedURL string,
) error {
	query := `
		UPDATE content_artifacts
		SET external_id = CASE WHEN external_id = '' THEN $2 ELSE external_id END,
		    published_url = CASE WHEN published_url = '' THEN $3 ELSE published_url END,
		    status = CASE WHEN status_rank(status) < status_rank('published') THEN 'published' ELSE status END,
		    updated_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, externalID, publishedURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark artifact published: %w", err)
	}

	return requireRow(res, "mark artifact published")
}

// MarkArtifactIndexed advances an artifact to indexed once it is observed in
// search results.
func (r *Repository) MarkArtifactIndexed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_artifacts
		SET status = CASE WHEN status_rank(status) < status_rank('indexed') THEN 'indexed' ELSE status END,
		    updated_at = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark artifact indexed: %w", err)
	}

	return requireRow(res, "mark artifact indexed")
}

// requireRow maps a zero-row update to ErrNotFound.
func requireRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
