package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSubscriberCard(t *testing.T) {
	cache, mr := setupTestCache(t)

	card := models.Subscriber{
		ID:                 42,
		Name:               "Sita",
		Frequency:          models.FrequencyMonthly,
		Rate:               decimal.RequireFromString("499.50"),
		ReminderDaysBefore: 5,
		SubscriptionEnd:    time.Date(2026, 2, 12, 18, 15, 0, 0, time.UTC),
		Status:             models.StatusInactive,
		StatusNotes:        "Auto-deactivated",
	}
	require.NoError(t, cache.Set("subscriber:42", card, time.Minute))

	var got models.Subscriber
	found, err := cache.Get("subscriber:42", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, card.Rate.Equal(got.Rate), "rate %s", got.Rate)
	assert.True(t, card.SubscriptionEnd.Equal(got.SubscriptionEnd))
	assert.Equal(t, card.Status, got.Status)
	assert.Equal(t, card.StatusNotes, got.StatusNotes)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get("subscriber:42", &got)
	require.NoError(t, err)
	assert.False(t, found, "card must expire with its TTL")
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)

	require.NoError(t, cache.Set("subscriber:7", models.Subscriber{ID: 7}, time.Minute))
	require.NoError(t, cache.Invalidate("subscriber:7"))
	require.NoError(t, cache.Invalidate("subscriber:never-cached"))

	var out models.Subscriber
	found, err := cache.Get("subscriber:7", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetNXKeepsExistingValue(t *testing.T) {
	cache, mr := setupTestCache(t)

	fresh := models.Subscriber{ID: 3, Status: models.StatusInactive}
	stale := models.Subscriber{ID: 3, Status: models.StatusActive}

	stored, err := cache.SetNX("subscriber:3", fresh, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = cache.SetNX("subscriber:3", stale, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored, "occupied key must not be overwritten")

	var got models.Subscriber
	found, err := cache.Get("subscriber:3", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusInactive, got.Status)

	mr.FastForward(2 * time.Minute)
	stored, err = cache.SetNX("subscriber:3", stale, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored, "expired key must accept a new value")
}

func TestGetCorruptedEntry(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("subscriber:9", "not-json"))

	var out models.Subscriber
	found, err := cache.Get("subscriber:9", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cache, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: "127.0.0.1:1"})
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestTryLockAndUnlock(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	token, ok, err := cache.TryLock(ctx, "billing:daily-pass", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = cache.TryLock(ctx, "billing:daily-pass", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second lock attempt must fail while the first is held")

	require.NoError(t, cache.Unlock(ctx, "billing:daily-pass", "someone-else"))
	_, ok, err = cache.TryLock(ctx, "billing:daily-pass", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "unlock with a foreign token must not release the lock")

	require.NoError(t, cache.Unlock(ctx, "billing:daily-pass", token))
	_, ok, err = cache.TryLock(ctx, "billing:daily-pass", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.TryLock(ctx, "billing:daily-pass", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock of a crashed holder must lapse with its TTL")
}
