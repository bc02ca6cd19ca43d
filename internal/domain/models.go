// Package domain contains the core domain models for the campaign engine.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Site is the campaign root. Every other entity is namespaced by a site.
type Site struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Domain    string    `db:"domain"     json:"domain"`
	Name      string    `db:"name"       json:"name"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Keyword is a tracked search keyword. Natural key: (site_id, keyword),
// with the keyword text normalized by NormalizeKeyword.
type Keyword struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	SiteID       uuid.UUID `db:"site_id"       json:"site_id"`
	Keyword      string    `db:"keyword"       json:"keyword"`
	SearchVolume int       `db:"search_volume" json:"search_volume"`
	Difficulty   int       `db:"difficulty"    json:"difficulty"`
	Intent       string    `db:"intent"        json:"intent"`
	Source       string    `db:"source"        json:"source"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// NormalizeKeyword lowercases, trims, and collapses inner whitespace so that
// the same phrase always maps to the same natural key.
func NormalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ResearchRecord is the latest competitive snapshot for a keyword.
// At most one current record exists per keyword; refreshes replace it in place.
type ResearchRecord struct {
	ID             uuid.UUID      `db:"id"              json:"id"`
	KeywordID      uuid.UUID      `db:"keyword_id"      json:"keyword_id"`
	CompetitorURLs pq.StringArray `db:"competitor_urls" json:"competitor_urls"`
	AvgWordCount   int            `db:"avg_word_count"  json:"avg_word_count"`
	ContentGaps    pq.StringArray `db:"content_gaps"    json:"content_gaps"`
	ResearchedAt   time.Time      `db:"researched_at"   json:"researched_at"`
}

// ContentArtifact is a generated article for a (site, keyword) pair. It is
// created once per generation and mutated in place as it advances through
// the status lattice.
type ContentArtifact struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	SiteID       uuid.UUID      `db:"site_id"       json:"site_id"`
	KeywordID    uuid.UUID      `db:"keyword_id"    json:"keyword_id"`
	Title        string         `db:"title"         json:"title"`
	Body         string         `db:"body"          json:"body"`
	Status       ArtifactStatus `db:"status"        json:"status"`
	WordCount    int            `db:"word_count"    json:"word_count"`
	QualityScore float64        `db:"quality_score" json:"quality_score"`
	ExternalID   string         `db:"external_id"   json:"external_id,omitempty"`
	PublishedURL string         `db:"published_url" json:"published_url,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
}

// RankingObservation is one rank measurement for a keyword. Observations are
// append-only: re-tracking adds rows, it never edits history. Rank 0 means the
// keyword was not found in the measured results.
type RankingObservation struct {
	ID         int64     `db:"id"          json:"id"`
	SiteID     uuid.UUID `db:"site_id"     json:"site_id"`
	KeywordID  uuid.UUID `db:"keyword_id"  json:"keyword_id"`
	Rank       int       `db:"rank"        json:"rank"`
	URL        string    `db:"url"         json:"url,omitempty"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}

// OutreachCampaign groups outreach targets under a site.
type OutreachCampaign struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	SiteID    uuid.UUID `db:"site_id"    json:"site_id"`
	Name      string    `db:"name"       json:"name"`
	Subject   string    `db:"subject"    json:"subject"`
	BodyTmpl  string    `db:"body_tmpl"  json:"body_tmpl"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OutreachTarget is a prospect domain within a campaign.
// Natural key: (campaign_id, domain).
type OutreachTarget struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	CampaignID  uuid.UUID `db:"campaign_id"  json:"campaign_id"`
	Domain      string    `db:"domain"       json:"domain"`
	Email       string    `db:"email"        json:"email"`
	ContactName string    `db:"contact_name" json:"contact_name,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// OutreachMessage is one sent email. The correlation id is assigned at send
// time and is the sole handle linking later open/click/reply events back to
// this message.
type OutreachMessage struct {
	ID             uuid.UUID     `db:"id"              json:"id"`
	TargetID       uuid.UUID     `db:"target_id"       json:"target_id"`
	CorrelationID  string        `db:"correlation_id"  json:"correlation_id"`
	Subject        string        `db:"subject"         json:"subject"`
	Status         MessageStatus `db:"status"          json:"status"`
	SentAt         time.Time     `db:"sent_at"         json:"sent_at"`
	DeliveredAt    *time.Time    `db:"delivered_at"    json:"delivered_at,omitempty"`
	OpenedAt       *time.Time    `db:"opened_at"       json:"opened_at,omitempty"`
	ClickedAt      *time.Time    `db:"clicked_at"      json:"clicked_at,omitempty"`
	RepliedAt      *time.Time    `db:"replied_at"      json:"replied_at,omitempty"`
	BouncedAt      *time.Time    `db:"bounced_at"      json:"bounced_at,omitempty"`
	ReplySentiment string        `db:"reply_sentiment" json:"reply_sentiment,omitempty"`
	CreatedAt      time.Time     `db:"created_at"      json:"created_at"`
}
