package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/salah/internal/config"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "salah.log")
	logger, closer, err := New(config.LogConfig{Level: "info", File: path}, false)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("prayer", "asr").Msg("recorded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"prayer":"asr"`)
	assert.Contains(t, out, `"message":"recorded"`)
	assert.False(t, strings.Contains(out, "hidden"), "debug below level")
}

func TestNew_VerboseLowersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salah.log")
	logger, closer, err := New(config.LogConfig{Level: "warn", File: path}, true)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNew_NoOutputs(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "bogus"}, false)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}
