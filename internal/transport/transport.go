package transport

import (
	"context"

	"outreach/internal/domain"
)

// DeliveryRequest is the payload handed to the outbound webhook relay for one
// (recipient, channel) send. Correlation IDs let the relay's own logs be
// joined back to broadcast and content records.
type DeliveryRequest struct {
	Channel     domain.Channel `json:"channel"`
	Address     string         `json:"address"`
	ContactName string         `json:"contactName,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body"`
	Priority    string         `json:"priority,omitempty"`
	Language    string         `json:"language,omitempty"`
	BroadcastID string         `json:"broadcastId,omitempty"`
	ContentID   string         `json:"contentId,omitempty"`
}

// DeliveryResult is data, not error: a failed send is a recorded outcome the
// engines count and escalate via alerting.
type DeliveryResult struct {
	Success bool
	Error   string
}

type Deliverer interface {
	Deliver(ctx context.Context, req DeliveryRequest) DeliveryResult
}
