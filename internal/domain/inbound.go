package domain

import "time"

// InboundMessage is one message fetched from the monitored mailbox. Threading
// headers are what correlate a reply back to an outreach message.
type InboundMessage struct {
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	InReplyTo  string    `json:"in_reply_to"`
	References []string  `json:"references"`
	ReceivedAt time.Time `json:"received_at"`
}
