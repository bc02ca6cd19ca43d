package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/gocampaign/internal/domain"
)

// CreateCampaign creates a new outreach campaign.
func (r *Repository) CreateCampaign(ctx context.Context, campaign *domain.OutreachCampaign) error {
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	campaign.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO outreach_campaigns (id, site_id, name, subject, body_tmpl, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		campaign.ID, campaign.SiteID, campaign.Name,
		campaign.Subject, campaign.BodyTmpl, campaign.Active, campaign.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves an outreach campaign by id.
func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.OutreachCampaign, error) {
	campaign := &domain.OutreachCampaign{}
	query := `
		SELECT id, site_id, name, subject, body_tmpl, active, created_at
		FROM outreach_campaigns
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, campaign, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}

	return campaign, nil
}

// EnsureTarget returns the target for (campaignID, domain) or creates it.
// The INSERT races safely against concurrent callers: on conflict it changes
// nothing and the existing row is re-fetched.
func (r *Repository) EnsureTarget(
	ctx context.Context,
	campaignID uuid.UUID,
	targetDomain, email, contactName string,
) (*domain.OutreachTarget, error) {
	normalized := strings.ToLower(strings.TrimSpace(targetDomain))
	if normalized == "" {
		return nil, fmt.Errorf("ensure target: empty domain")
	}

	insert := `
		INSERT INTO outreach_targets (id, campaign_id, domain, email, contact_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (campaign_id, domain) DO NOTHING
	`

	_, err := r.db.ExecContext(
		ctx, insert,
		uuid.New(), campaignID, normalized, email, contactName, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure target: %w", err)
	}

	target := &domain.OutreachTarget{}
	query := `
		SELECT id, campaign_id, domain, email, contact_name, created_at
		FROM outreach_targets
		WHERE campaign_id = $1 AND domain = $2
	`

	if err := r.db.GetContext(ctx, target, query, campaignID, normalized); err != nil {
		return nil, fmt.Errorf("ensure target fetch: %w", err)
	}

	return target, nil
}

// ListTargets returns a campaign's targets in discovery order, bounded by limit.
func (r *Repository) ListTargets(
	ctx context.Context,
	campaignID uuid.UUID,
	limit int,
) ([]domain.OutreachTarget, error) {
	targets := []domain.OutreachTarget{}
	query := `
		SELECT id, campaign_id, domain, email, contact_name, created_at
		FROM outreach_targets
		WHERE campaign_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &targets, query, campaignID, limit); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	return targets, nil
}

// messageColumns is the shared select list for outreach messages.
const messageColumns = `
	id, target_id, correlation_id, subject, status, sent_at,
	delivered_at, opened_at, clicked_at, replied_at, bounced_at,
	reply_sentiment, created_at
`

// CreateMessage registers a sent message under its correlation id.
func (r *Repository) CreateMessage(ctx context.Context, msg *domain.OutreachMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now().UTC()
	if msg.Status == "" {
		msg.Status = domain.MessageSent
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = msg.CreatedAt
	}

	query := `
		INSERT INTO outreach_messages
			(id, target_id, correlation_id, subject, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		msg.ID, msg.TargetID, msg.CorrelationID, msg.Subject, msg.Status, msg.SentAt, msg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetMessageByTarget returns the message already sent to a target, if any.
// The outreach stage checks this before sending so an aborted run never
// double-sends on resume.
func (r *Repository) GetMessageByTarget(ctx context.Context, targetID uuid.UUID) (*domain.OutreachMessage, error) {
	msg := &domain.OutreachMessage{}
	query := `SELECT ` + messageColumns + ` FROM outreach_messages WHERE target_id = $1`

	err := r.db.GetContext(ctx, msg, query, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message by target: %w", err)
	}

	return msg, nil
}

// ListCorrelationIDs returns every known correlation id for the inbound
// mailbox scan to match reply headers against.
func (r *Repository) ListCorrelationIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	query := `SELECT correlation_id FROM outreach_messages`

	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list correlation ids: %w", err)
	}

	return ids, nil
}

// MarkDelivered records delivery confirmation. Replays are no-ops: the
// timestamp is only filled once and the status never regresses.
func (r *Repository) MarkDelivered(ctx context.Context, correlationID string, at time.Time) error {
	query := `
		UPDATE outreach_messages
		SET delivered_at = COALESCE(delivered_at, $2),
		    status = CASE WHEN status = 'sent' THEN 'delivered' ELSE status END
		WHERE correlation_id = $1
	`

	return r.applyTransition(ctx, query, correlationID, at, "mark delivered")
}

// MarkOpened records a pixel fetch. The first event wins the timestamp;
// duplicates leave the row unchanged.
func (r *Repository) MarkOpened(ctx context.Context, correlationID string, at time.Time) error {
	query := `
		UPDATE outreach_messages
		SET opened_at = COALESCE(opened_at, $2),
		    status = CASE WHEN status IN ('sent', 'delivered') THEN 'opened' ELSE status END
		WHERE correlation_id = $1
	`

	return r.applyTransition(ctx, query, correlationID, at, "mark opened")
}

// MarkClicked records a click-redirect hit, idempotently.
func (r *Repository) MarkClicked(ctx context.Context, correlationID string, at time.Time) error {
	query := `
		UPDATE outreach_messages
		SET clicked_at = COALESCE(clicked_at, $2),
		    status = CASE WHEN status IN ('sent', 'delivered', 'opened') THEN 'clicked' ELSE status END
		WHERE correlation_id = $1
	`

	return r.applyTransition(ctx, query, correlationID, at, "mark clicked")
}

// MarkReplied records a correlated reply with its sentiment. All SET
// expressions read the pre-update row, so the sentiment is only stored on the
// first application; replaying the same reply cannot re-score it.
func (r *Repository) MarkReplied(ctx context.Context, correlationID string, at time.Time, sentiment string) error {
	query := `
		UPDATE outreach_messages
		SET replied_at = COALESCE(replied_at, $2),
		    reply_sentiment = CASE WHEN replied_at IS NULL THEN $3 ELSE reply_sentiment END,
		    status = CASE WHEN status NOT IN ('replied', 'bounced') THEN 'replied' ELSE status END
		WHERE correlation_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, correlationID, at, sentiment)
	if err != nil {
		return fmt.Errorf("mark replied: %w", err)
	}

	return requireRow(res, "mark replied")
}

// MarkBounced records a delivery failure, idempotently.
func (r *Repository) MarkBounced(ctx context.Context, correlationID string, at time.Time) error {
	query := `
		UPDATE outreach_messages
		SET bounced_at = COALESCE(bounced_at, $2),
		    status = CASE WHEN status NOT IN ('replied', 'bounced') THEN 'bounced' ELSE status END
		WHERE correlation_id = $1
	`

	return r.applyTransition(ctx, query, correlationID, at, "mark bounced")
}

func (r *Repository) applyTransition(
	ctx context.Context,
	query, correlationID string,
	at time.Time,
	op string,
) error {
	res, err := r.db.ExecContext(ctx, query, correlationID, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return requireRow(res, op)
}
