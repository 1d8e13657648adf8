package redis

import (
	"context"
	"fmt"
	"time"

	"invest-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// WebhookDedupStore implements ports.WebhookDedupStore using Redis SET NX.
// It is the fast-path check; the webhook_receipts unique constraint in
// Postgres remains the authoritative one.
type WebhookDedupStore struct {
	client *goredis.Client
	prefix string
}

// NewWebhookDedupStore creates a new Redis-backed webhook dedup store.
func NewWebhookDedupStore(client *goredis.Client) *WebhookDedupStore {
	return &WebhookDedupStore{
		client: client,
		prefix: "webhook:",
	}
}

// CheckAndSet atomically checks if an event id was seen, marking it if not.
// Returns true if the delivery is new, false if it is a redelivery.
func (s *WebhookDedupStore) CheckAndSet(ctx context.Context, platform domain.Platform, eventID string, ttl time.Duration) (bool, error) {
	key := s.prefix + string(platform) + ":" + eventID
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — event was already delivered
			return false, nil
		}
		return false, fmt.Errorf("redis webhook dedup check: %w", err)
	}
	return result == "OK", nil
}
