//nolint:testpackage // Testing internal repository requires same package access
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func keywordRows(id, siteID uuid.UUID, text string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "site_id", "keyword", "search_volume", "difficulty",
		"intent", "source", "created_at", "updated_at",
	}).AddRow(id, siteID, text, 1200, 35, "informational", "extraction", now, now)
}

func TestEnsureKeyword_NormalizesText(t *testing.T) {
	repo, mock := newMockRepo(t)
	siteID := uuid.New()
	kwID := uuid.New()

	mock.ExpectQuery("INSERT INTO keywords").
		WithArgs(
			sqlmock.AnyArg(), siteID, "seo tools",
			1200, 35, "informational", "extraction",
			sqlmock.AnyArg(),
		).
		WillReturnRows(keywordRows(kwID, siteID, "seo tools"))

	kw, err := repo.EnsureKeyword(context.Background(), siteID, "  SEO   Tools ", KeywordDefaults{
		SearchVolume: 1200,
		Difficulty:   35,
		Intent:       "informational",
		Source:       "extraction",
	})
	if err != nil {
		t.Fatalf("EnsureKeyword() error = %v", err)
	}
	if kw.Keyword != "seo tools" {
		t.Errorf("Keyword = %q, want %q", kw.Keyword, "seo tools")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestEnsureKeyword_EmptyTextRejected(t *testing.T) {
	repo, _ := newMockRepo(t)

	if _, err := repo.EnsureKeyword(context.Background(), uuid.New(), "   ", KeywordDefaults{}); err == nil {
		t.Error("EnsureKeyword() with blank text should fail")
	}
}

func TestCreateArtifact_ConflictMapsToAlreadyExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO content_artifacts").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateArtifact(context.Background(), &domain.ContentArtifact{
		SiteID:    uuid.New(),
		KeywordID: uuid.New(),
		Title:     "Best SEO Tools",
	})

	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("CreateArtifact() error = %v, want ErrAlreadyExists", err)
	}
}

func TestInsertObservation_Appends(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO ranking_observations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	obs := &domain.RankingObservation{
		SiteID:    uuid.New(),
		KeywordID: uuid.New(),
		Rank:      7,
		URL:       "https://example.com/best-seo-tools",
	}

	if err := repo.InsertObservation(context.Background(), obs); err != nil {
		t.Fatalf("InsertObservation() error = %v", err)
	}
	if obs.ID != 42 {
		t.Errorf("obs.ID = %d, want 42", obs.ID)
	}
	if obs.ObservedAt.IsZero() {
		t.Error("ObservedAt should be stamped")
	}
}

func TestMarkOpened_UsesCoalesce(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE outreach_messages\s+SET opened_at = COALESCE`).
		WithArgs("corr-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkOpened(context.Background(), "corr-1", at); err != nil {
		t.Fatalf("MarkOpened() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestMarkOpened_UnknownCorrelationID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE outreach_messages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkOpened(context.Background(), "missing", time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MarkOpened() error = %v, want ErrNotFound", err)
	}
}

func TestMarkReplied_PassesSentiment(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE outreach_messages\s+SET replied_at = COALESCE`).
		WithArgs("corr-2", at, "positive").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkReplied(context.Background(), "corr-2", at, "positive"); err != nil {
		t.Fatalf("MarkReplied() error = %v", err)
	}
}

func TestEnsureTarget_InsertThenFetch(t *testing.T) {
	repo, mock := newMockRepo(t)
	campaignID := uuid.New()
	targetID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO outreach_targets").
		WithArgs(sqlmock.AnyArg(), campaignID, "example.org", "editor@example.org", "Sam", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0)) // conflict: row already existed

	mock.ExpectQuery("SELECT (.+) FROM outreach_targets").
		WithArgs(campaignID, "example.org").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "campaign_id", "domain", "email", "contact_name", "created_at",
		}).AddRow(targetID, campaignID, "example.org", "editor@example.org", "Sam", now))

	target, err := repo.EnsureTarget(context.Background(), campaignID, " Example.ORG ", "editor@example.org", "Sam")
	if err != nil {
		t.Fatalf("EnsureTarget() error = %v", err)
	}
	if target.ID != targetID {
		t.Errorf("target.ID = %v, want existing row %v", target.ID, targetID)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestReplaceResearch_SingleSlot(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO research_records(.+)ON CONFLICT \(keyword_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &domain.ResearchRecord{
		KeywordID:      uuid.New(),
		CompetitorURLs: []string{"https://a.example", "https://b.example"},
		AvgWordCount:   1800,
		ContentGaps:    []string{"pricing comparison"},
	}

	if err := repo.ReplaceResearch(context.Background(), rec); err != nil {
		t.Fatalf("ReplaceResearch() error = %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Error("ReplaceResearch should assign an id")
	}
}
