package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestLogger_ContextFieldsArePreserved(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "relay", Level: "debug", Output: buf})

	ctx := log.WithConnectionID(context.Background(), "c1")
	ctx = log.WithUserID(ctx, "u1")
	log.Error(ctx, "boom", errors.New("store down"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "relay", entry["service"])
	assert.Equal(t, "c1", entry["connection_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "store down", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogger_EventTag(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "relay", Output: buf})

	log.Event(context.Background(), "stale_connection_reaped", "deleted")

	entry := decodeLine(t, buf)
	assert.Equal(t, "stale_connection_reaped", entry["event"])
	assert.Equal(t, "deleted", entry["message"])
}

func TestLogger_LevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "relay", Level: "warn", Output: buf})

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
}

func TestNop(t *testing.T) {
	log := Nop()
	ctx := log.WithRoute(context.Background(), "$connect")
	log.Info(ctx, "nothing")
	log.Printf("migrate: %s\n", "ok")
}

func TestLogger_ZeroOptionsLogAtInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "relay", Output: buf})
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	assert.Empty(t, buf.String())

	log.Info(ctx, "shown")
	assert.Contains(t, buf.String(), "shown")
}
