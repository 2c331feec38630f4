package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/pkg/config"
)

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"garbage", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestNewWithWriter_Levels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warnf("retry attempt: %d", 3)
	entry := decodeLast(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "retry attempt: 3", entry["message"])
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithFields(map[string]interface{}{
		"ticker": "BHP[AU]",
		"rows":   1200,
	}).Info("ticker built")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "BHP[AU]", entry["ticker"])
	assert.Equal(t, float64(1200), entry["rows"])
	assert.Equal(t, "ticker built", entry["message"])
}

func TestWithFieldAndError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithField("market", "US").WithError(errors.New("index unavailable")).Error("market skipped")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "US", entry["market"])
	assert.Equal(t, "index unavailable", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Error("nothing")
		log.Infof("%d", 1)
	})
}
