package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "deckhand.log")
	require.NoError(t, Init(Config{Level: "debug", Output: path}))
	t.Cleanup(func() { _ = Close() })

	logger := WithComponent("poller")
	logger.Debug().Str("target", "web").Msg("fetched")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"poller"`)
	assert.Contains(t, string(data), `"target":"web"`)
	assert.Contains(t, string(data), `"message":"fetched"`)
}

func TestInit_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deckhand.log")
	require.NoError(t, Init(Config{Level: "WARN", Output: path}))

	logger := Logger()
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestClose_WithoutFile(t *testing.T) {
	require.NoError(t, Init(Config{Output: "discard"}))
	assert.NoError(t, Close())
	assert.NoError(t, Close())
}
