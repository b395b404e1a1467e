package platform

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	return m
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON Attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "info", Format: "json"}, &buf)

		logger.Info("step", "artist", "Can", "length", 3, "elapsed", time.Second, "err", errors.New("boom"))

		m := decodeLine(t, &buf)
		assert.Equal(t, "info", m["level"])
		assert.Equal(t, "step", m["message"])
		assert.Equal(t, "Can", m["artist"])
		assert.EqualValues(t, 3, m["length"])
		assert.Equal(t, "boom", m["err"])
		assert.Contains(t, m, "time")
	})

	t.Run("Level Filter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

		logger.Info("hidden")
		assert.Zero(t, buf.Len())
		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

		logger.Error("shown")
		assert.Equal(t, "error", decodeLine(t, &buf)["level"])
	})

	t.Run("Groups And With", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf).
			With("component", "walker").
			WithGroup("walk")

		logger.Debug("saved", "handle", "mdwalker23-11-22--14-44-34", slog.Group("last", "artist", "Faust"))

		m := decodeLine(t, &buf)
		assert.Equal(t, "debug", m["level"])
		assert.Equal(t, "walker", m["component"])
		assert.Equal(t, "mdwalker23-11-22--14-44-34", m["walk.handle"])
		assert.Equal(t, "Faust", m["walk.last.artist"])
	})

	t.Run("Console Format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "info", Format: "console"}, &buf)
		logger.Info("walking", "seed", "Can")
		assert.Contains(t, buf.String(), "walking")
		assert.Contains(t, buf.String(), "Can")
	})
}
