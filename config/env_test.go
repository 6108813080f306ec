package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/holdings/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, mapLookup(map[string]string{
		"HOLDINGS_URL":           "https://example.com/filer/acme",
		"HOLDINGS_TABLE_TIMEOUT": "2m",
		"HOLDINGS_HEADLESS":      "false",
		"HOLDINGS_PROXY":         "socks5://127.0.0.1:9050",
		"HOLDINGS_LOG_LEVEL":     "DEBUG",
		"HOLDINGS_USER_AGENTS":   "Mozilla/5.0 (X11; Linux x86_64) | Mozilla/5.0 (Macintosh, Intel)",
		"HOLDINGS_OUTPUT":        "holdings.xlsx",
		"HOLDINGS_METRICS_PATH":  "holdings.prom",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/filer/acme", cfg.Scrape.URL)
	assert.Equal(t, 2*time.Minute, cfg.Scrape.TableTimeout)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.Browser.Proxy)
	assert.Equal(t, logging.LevelDebug, cfg.Log.Level)
	assert.Equal(t, []string{
		"Mozilla/5.0 (X11; Linux x86_64)",
		"Mozilla/5.0 (Macintosh, Intel)",
	}, cfg.UserAgents)
	assert.Equal(t, "holdings.xlsx", cfg.OutputPath)
	assert.Equal(t, "holdings.prom", cfg.MetricsPath)
}

func TestApplyEnv_Unset(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, mapLookup(nil)))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv_EmptyDisablesHistory(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, mapLookup(map[string]string{
		"HOLDINGS_HISTORY_DSN": "",
		"HOLDINGS_TAB_TIMEOUT": "",
	})))

	assert.Empty(t, cfg.HistoryDSN)
	assert.Equal(t, Default().Scrape.TabTimeout, cfg.Scrape.TabTimeout, "empty duration keeps the current value")
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, mapLookup(map[string]string{
		"HOLDINGS_TAB_TIMEOUT": "soon",
		"HOLDINGS_STEALTH":     "maybe",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOLDINGS_TAB_TIMEOUT")
	assert.Contains(t, err.Error(), "HOLDINGS_STEALTH")
}

func TestLoadDotenv(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		assert.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("exports variables without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(
			"HOLDINGS_TEST_DOTENV_NEW=from-dotenv\nHOLDINGS_TEST_DOTENV_SET=from-dotenv\n",
		), 0o600))

		t.Setenv("HOLDINGS_TEST_DOTENV_SET", "from-env")
		t.Setenv("HOLDINGS_TEST_DOTENV_NEW", "")
		require.NoError(t, os.Unsetenv("HOLDINGS_TEST_DOTENV_NEW"))

		require.NoError(t, LoadDotenv(path))
		assert.Equal(t, "from-dotenv", os.Getenv("HOLDINGS_TEST_DOTENV_NEW"))
		assert.Equal(t, "from-env", os.Getenv("HOLDINGS_TEST_DOTENV_SET"))
	})
}
