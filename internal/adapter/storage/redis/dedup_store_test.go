package redis

import (
	"context"
	"testing"
	"time"

	"invest-ledger/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDedupStore_CheckAndSet_NewEvent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewWebhookDedupStore(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, domain.PlatformPaystack, "evt-abc", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "new event should return true")
}

func TestWebhookDedupStore_CheckAndSet_Redelivery(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewWebhookDedupStore(client)
	ctx := context.Background()

	// First delivery
	ok, err := store.CheckAndSet(ctx, domain.PlatformPaystack, "evt-xyz", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	// Redelivery
	ok, err = store.CheckAndSet(ctx, domain.PlatformPaystack, "evt-xyz", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "redelivered event should return false")
}

func TestWebhookDedupStore_CheckAndSet_DifferentPlatforms(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewWebhookDedupStore(client)
	ctx := context.Background()

	// Same event id, different platforms
	ok1, err := store.CheckAndSet(ctx, domain.PlatformPaystack, "evt-123", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := store.CheckAndSet(ctx, domain.PlatformFlutterwave, "evt-123", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok2, "same event id on another platform should be new")
}

func TestWebhookDedupStore_CheckAndSet_Expired(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewWebhookDedupStore(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, domain.PlatformMono, "evt-expire", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Fast-forward past TTL
	s.FastForward(2 * time.Second)

	ok, err = store.CheckAndSet(ctx, domain.PlatformMono, "evt-expire", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired marker falls through to the database check")
}
