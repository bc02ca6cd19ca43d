package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/external"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

// ErrCampaignInactive is returned when an outreach run targets a campaign
// that has been switched off.
var ErrCampaignInactive = errors.New("outreach campaign is not active")

// RunOutreach sends tracked outreach mail for one campaign. It is the
// independent second track: schedulable on its own, never part of a content
// run. Sends are capped at the first K targets in discovery order; a target
// that already has a message is skipped, never re-sent, so an aborted run
// resumes without double-sending.
func (o *Orchestrator) RunOutreach(ctx context.Context, campaignID uuid.UUID) (*domain.OutreachReport, error) {
	campaign, err := o.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", campaignID, err)
	}
	if !campaign.Active {
		return nil, fmt.Errorf("%w: %s", ErrCampaignInactive, campaignID)
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.outreach",
		trace.WithAttributes(attribute.String("campaign_id", campaignID.String())))
	defer span.End()

	report := &domain.OutreachReport{
		CampaignID: campaign.ID,
		StartedAt:  time.Now().UTC(),
	}

	targets, err := o.store.ListTargets(ctx, campaign.ID, o.config.ItemCap)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	for i := range capped(targets, o.config.OutreachCap) {
		target := targets[i]

		sent, sendErr := o.sendToTarget(ctx, campaign, target)
		switch {
		case sendErr != nil:
			report.Failed++
			report.Errors = append(report.Errors, domain.StageError{
				Stage:   domain.StageOutreach,
				ItemKey: target.Domain,
				Message: sendErr.Error(),
			})
			o.log.Warn("outreach send failed",
				logger.String("target", target.Domain),
				logger.Error(sendErr))
		case sent:
			report.Sent++
			if o.metrics != nil {
				o.metrics.RecordMessageSent()
			}
		default:
			report.Skipped++
			if o.metrics != nil {
				o.metrics.RecordMessageSkipped()
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	o.log.Info("outreach run finished",
		logger.String("campaign_id", campaign.ID.String()),
		logger.Int("sent", report.Sent),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed))

	return report, nil
}

// sendToTarget sends one message unless the target already has one. Returns
// (false, nil) for the skip case.
func (o *Orchestrator) sendToTarget(
	ctx context.Context,
	campaign *domain.OutreachCampaign,
	target domain.OutreachTarget,
) (bool, error) {
	_, err := o.store.GetMessageByTarget(ctx, target.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	body := renderTemplate(campaign.BodyTmpl, target)

	var correlationID string
	sendErr := o.invoke(ctx, func() error {
		var mailErr error
		correlationID, mailErr = o.caps.Mailer.Send(ctx, external.SendRequest{
			To:      target.Email,
			Subject: campaign.Subject,
			Body:    body,
		})
		return mailErr
	})
	if sendErr != nil {
		return false, sendErr
	}

	recordErr := o.tracker.RecordSend(ctx, &domain.OutreachMessage{
		TargetID:      target.ID,
		CorrelationID: correlationID,
		Subject:       campaign.Subject,
	})
	if recordErr != nil {
		// The mail is out; losing the record would orphan its events.
		return true, recordErr
	}

	return true, nil
}

// renderTemplate fills the campaign body placeholders from the target.
func renderTemplate(tmpl string, target domain.OutreachTarget) string {
	name := target.ContactName
	if name == "" {
		name = "there"
	}

	return strings.NewReplacer(
		"{{name}}", name,
		"{{domain}}", target.Domain,
	).Replace(tmpl)
}
