package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.True(t, cfg.Pretty)
	assert.NotNil(t, cfg.Output)
}

func TestParseLevel(t *testing.T) {
	tests := map[LogLevel]zerolog.Level{
		LevelDebug: zerolog.DebugLevel,
		LevelInfo:  zerolog.InfoLevel,
		LevelWarn:  zerolog.WarnLevel,
		"WARNING":  zerolog.WarnLevel,
		LevelError: zerolog.ErrorLevel,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}

	for level, expected := range tests {
		assert.Equal(t, expected, ParseLevel(level), "level %q", level)
	}
}

// TestSetup_JSON verifies JSON output includes message and component
func TestSetup_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Setup(Config{Level: LevelInfo, Output: &buf})

	logger := NewLogger("scrape")
	logger.Info().Int("page", 2).Msg("Extracting data from page 2...")

	out := buf.String()
	assert.Contains(t, out, `"component":"scrape"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, "Extracting data from page 2...")
}

// TestSetup_LevelFilters verifies messages below the level are dropped
func TestSetup_LevelFilters(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := Setup(Config{Level: LevelWarn, Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

// TestSetup_Pretty verifies console output is not JSON
func TestSetup_Pretty(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: &buf})

	logger.Info().Msg("Browser closed.")

	assert.Contains(t, buf.String(), "Browser closed.")
	assert.NotContains(t, buf.String(), `"message"`)
}
