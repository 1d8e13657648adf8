package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NotificationQueue implements ports.NotificationQueue by pushing JSON jobs
// onto a Redis list. A separate worker process pops and delivers them; the
// ledger never waits on delivery.
type NotificationQueue struct {
	client *goredis.Client
	key    string
}

// NewNotificationQueue creates a new Redis-backed notification queue.
func NewNotificationQueue(client *goredis.Client) *NotificationQueue {
	return &NotificationQueue{
		client: client,
		key:    "notifications:jobs",
	}
}

type notificationJob struct {
	Job        string          `json:"job"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Enqueue pushes a job onto the queue.
func (q *NotificationQueue) Enqueue(ctx context.Context, job string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	entry, err := json.Marshal(notificationJob{
		Job:        job,
		Payload:    body,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, entry).Err(); err != nil {
		return fmt.Errorf("redis notification enqueue: %w", err)
	}
	return nil
}
