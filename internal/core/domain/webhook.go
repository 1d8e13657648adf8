package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the external system that delivered a webhook.
type Platform string

const (
	PlatformPaystack    Platform = "PAYSTACK"
	PlatformFlutterwave Platform = "FLUTTERWAVE"
	PlatformMono        Platform = "MONO"
)

// WebhookReceipt records a processed webhook delivery. EventID is unique per
// platform; a redelivery with the same id must be rejected before any side
// effect occurs.
type WebhookReceipt struct {
	ID        uuid.UUID       `json:"id"`
	Platform  Platform        `json:"platform"`
	Action    string          `json:"action"`
	EventID   string          `json:"event_id"`
	Payload   json.RawMessage `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}
