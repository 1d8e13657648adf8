package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationQueue_Enqueue(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	queue := NewNotificationQueue(client)
	ctx := context.Background()

	err := queue.Enqueue(ctx, "wallet_credited", map[string]any{
		"user_id": "u-1",
		"amount":  100000,
	})
	require.NoError(t, err)

	entries, err := client.LRange(ctx, "notifications:jobs", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var job notificationJob
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &job))
	assert.Equal(t, "wallet_credited", job.Job)
	assert.False(t, job.EnqueuedAt.IsZero())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "u-1", payload["user_id"])
}

func TestNotificationQueue_Enqueue_Order(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	queue := NewNotificationQueue(client)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "first", nil))
	require.NoError(t, queue.Enqueue(ctx, "second", nil))

	// LPUSH + worker RPOP gives FIFO: oldest at the tail.
	entries, err := client.LRange(ctx, "notifications:jobs", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var newest notificationJob
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &newest))
	assert.Equal(t, "second", newest.Job)
}
