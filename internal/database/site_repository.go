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

// CreateSite creates a new tracked site.
func (r *Repository) CreateSite(ctx context.Context, siteDomain, name string) (*domain.Site, error) {
	site := &domain.Site{
		ID:        uuid.New(),
		Domain:    siteDomain,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO sites (id, domain, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, domain, name, active, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		site.ID, site.Domain, site.Name, site.Active, site.CreatedAt, site.UpdatedAt,
	).StructScan(site)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create site: %w", err)
	}

	return site, nil
}

// GetSite retrieves a site by id.
func (r *Repository) GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	site := &domain.Site{}
	query := `
		SELECT id, domain, name, active, created_at, updated_at
		FROM sites
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, site, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get site: %w", err)
	}

	return site, nil
}

// ListActiveSites returns all sites with active tracking, used by the
// scheduled rank re-tracking job.
func (r *Repository) ListActiveSites(ctx context.Context) ([]domain.Site, error) {
	sites := []domain.Site{}
	query := `
		SELECT id, domain, name, active, created_at, updated_at
		FROM sites
		WHERE active = true
		ORDER BY created_at
	`

	if err := r.db.SelectContext(ctx, &sites, query); err != nil {
		return nil, fmt.Errorf("list active sites: %w", err)
	}

	return sites, nil
}
