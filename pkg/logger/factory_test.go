package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mefeed/client-go/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format with component", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithFormat(logger.FormatJSON),
			logger.WithOutput(&buf),
			logger.WithComponent("tokenmgr"),
		)

		log.Info("refreshed", slog.String("token", "redacted"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "refreshed", record["msg"])
		assert.Equal(t, "tokenmgr", record["component"])
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithLevel(slog.LevelWarn),
		)

		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat("yaml"))
		})
	})
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("MEFEED_LOG_LEVEL", "debug")
	t.Setenv("MEFEED_LOG_FORMAT", "json")

	var buf bytes.Buffer
	log := logger.NewFromEnv(logger.WithOutput(&buf))

	log.Debug("visible")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "visible", record["msg"])
}
