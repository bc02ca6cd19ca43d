package domain

import "time"

// EngagementKind names the source of a raw engagement event.
type EngagementKind string

const (
	// EngagementOpen is a tracking-pixel fetch.
	EngagementOpen EngagementKind = "open"
	// EngagementClick is a click-redirect hit.
	EngagementClick EngagementKind = "click"
	// EngagementReply is a correlated inbound reply.
	EngagementReply EngagementKind = "reply"
	// EngagementDelivered is a provider delivery confirmation.
	EngagementDelivered EngagementKind = "delivered"
	// EngagementBounced is a provider delivery failure.
	EngagementBounced EngagementKind = "bounced"
)

// EngagementEvent is one raw tracking event. Events are logged append-only,
// duplicates included; the message state machine applies them idempotently
// on top of this log.
type EngagementEvent struct {
	CorrelationID string         `json:"correlation_id"`
	Kind          EngagementKind `json:"kind"`
	Destination   string         `json:"destination,omitempty"`
	UserAgentHash string         `json:"user_agent_hash,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
