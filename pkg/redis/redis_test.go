package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test")
	}

	_, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    "1", // nothing listens here
	}})
	assert.Error(t, err)
}

func TestCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(disabledClient(t), "stox")

	// When Redis is disabled, cache operations are no-ops
	require.NoError(t, cache.Set(ctx, "k", []float64{1, 2}, TTLShort))

	var out []float64
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)

	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "series:BHP[AU]:2020-01-01", SeriesKey("BHP[AU]", "2020-01-01"))
	assert.Equal(t, "stox:cache:series:x", NewCache(nil, "stox").key("series:x"))
}
