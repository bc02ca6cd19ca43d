package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository provides database operations for all campaign entities.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
