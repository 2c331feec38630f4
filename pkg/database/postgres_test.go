package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/pkg/config"
)

func postgresConfig(t *testing.T) *config.Config {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}
}

func TestNew_HealthCheck(t *testing.T) {
	cfg := postgresConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))

	// Double close should not panic
	db.Close()
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "invalid://url", MaxConns: 1},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenSQLite_CreatesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stox.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"equities", "indices"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}

	// reopen is idempotent
	db2, err := OpenSQLite(path)
	require.NoError(t, err)
	db2.Close()
}
