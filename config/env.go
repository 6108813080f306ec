package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pevans/holdings/logging"
)

// LookupFunc reports the value of an environment variable and whether it is
// set.
type LookupFunc func(key string) (string, bool)

func osLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// LoadDotenv exports the variables in path into the process environment.
// Variables already set are left alone and a missing file is ignored.
func LoadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// UserAgentSeparator splits HOLDINGS_USER_AGENTS; agent strings contain
// commas.
const UserAgentSeparator = "|"

// ApplyEnv overlays HOLDINGS_* variables onto cfg. A variable that is set
// but empty clears string settings, so HOLDINGS_HISTORY_DSN= disables
// history.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	str("HOLDINGS_URL", &cfg.Scrape.URL)
	str("HOLDINGS_TAB_LABEL", &cfg.Scrape.TabLabel)
	dur("HOLDINGS_TAB_TIMEOUT", &cfg.Scrape.TabTimeout)
	dur("HOLDINGS_TABLE_TIMEOUT", &cfg.Scrape.TableTimeout)

	boolean("HOLDINGS_HEADLESS", &cfg.Browser.Headless)
	boolean("HOLDINGS_NO_SANDBOX", &cfg.Browser.NoSandbox)
	boolean("HOLDINGS_STEALTH", &cfg.Browser.Stealth)
	str("HOLDINGS_PROXY", &cfg.Browser.Proxy)
	str("HOLDINGS_CHROME_PATH", &cfg.Browser.ExecPath)
	dur("HOLDINGS_NAVIGATION_TIMEOUT", &cfg.Browser.NavigationTimeout)

	if v, ok := lookup("HOLDINGS_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = logging.LogLevel(strings.ToLower(v))
	}
	boolean("HOLDINGS_LOG_PRETTY", &cfg.Log.Pretty)

	if v, ok := lookup("HOLDINGS_USER_AGENTS"); ok && v != "" {
		var agents []string
		for _, agent := range strings.Split(v, UserAgentSeparator) {
			if agent = strings.TrimSpace(agent); agent != "" {
				agents = append(agents, agent)
			}
		}
		cfg.UserAgents = agents
	}

	str("HOLDINGS_OUTPUT", &cfg.OutputPath)
	str("HOLDINGS_HISTORY_DSN", &cfg.HistoryDSN)
	str("HOLDINGS_METRICS_PATH", &cfg.MetricsPath)

	return errors.Join(errs...)
}
