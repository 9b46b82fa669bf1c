package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEventType identifies the kind of funnel event pushed by an integration.
type WebhookEventType string

const (
	WebhookEventFunnelCompletion WebhookEventType = "funnel_completion"
	WebhookEventStepCompletion   WebhookEventType = "step_completion"
	WebhookEventUserDropOff      WebhookEventType = "user_drop_off"
)

// IsValid reports whether t is a supported event type.
func (t WebhookEventType) IsValid() bool {
	switch t {
	case WebhookEventFunnelCompletion, WebhookEventStepCompletion, WebhookEventUserDropOff:
		return true
	}
	return false
}

// WebhookEvent is the inbound funnel-update payload.
// Data is opaque and passed through to subscribers as received.
type WebhookEvent struct {
	UserID    uuid.UUID        `json:"user_id"`
	ProjectID uuid.UUID        `json:"project_id"`
	EventType WebhookEventType `json:"event_type"`
	Data      json.RawMessage  `json:"data,omitempty"`
}

// ProjectEvent is what live subscribers of a project receive.
type ProjectEvent struct {
	ProjectID  uuid.UUID        `json:"project_id"`
	EventType  WebhookEventType `json:"event_type"`
	Data       json.RawMessage  `json:"data,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
}
