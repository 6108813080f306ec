// Package config assembles the scraper configuration from defaults, an
// optional YAML file, a .env file and HOLDINGS_* environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/pevans/holdings/browser"
	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/export"
	"github.com/pevans/holdings/logging"
	"github.com/pevans/holdings/scrape"
)

// DefaultHistoryDSN is the run history database used when none is set.
const DefaultHistoryDSN = "holdings.db"

// Config is the complete configuration of a scrape run.
type Config struct {
	Scrape  scrape.Config   `yaml:"scrape"`
	Browser browser.Options `yaml:"browser"`
	Log     logging.Config  `yaml:"log"`

	// UserAgents is the identity pool one agent is drawn from per run.
	UserAgents []string `yaml:"user_agents"`

	// OutputPath is where records are written; .xlsx selects a workbook.
	OutputPath string `yaml:"output_path"`

	// HistoryDSN is the run history database. Empty disables history.
	HistoryDSN string `yaml:"history_dsn"`

	// MetricsPath is a Prometheus textfile written after each run. Empty
	// disables it.
	MetricsPath string `yaml:"metrics_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scrape:     scrape.DefaultConfig(),
		Browser:    browser.DefaultOptions(),
		Log:        logging.DefaultConfig(),
		UserAgents: append([]string(nil), evasion.DefaultUserAgents...),
		OutputPath: export.DefaultPath,
		HistoryDSN: DefaultHistoryDSN,
	}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.Scrape.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scrape: %w", err))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("browser: navigation_timeout must be positive (got %s)", c.Browser.NavigationTimeout))
	}
	if c.Browser.ActionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("browser: action_timeout must be positive (got %s)", c.Browser.ActionTimeout))
	}
	if len(c.UserAgents) == 0 {
		errs = append(errs, fmt.Errorf("user_agents: %w", evasion.ErrEmptyPool))
	}
	for i, agent := range c.UserAgents {
		if agent == "" {
			errs = append(errs, fmt.Errorf("user_agents[%d] is empty", i))
		}
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output_path is required"))
	}
	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		errs = append(errs, fmt.Errorf("log: unknown level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Load builds the configuration from defaults, the config file, .env and
// the process environment, in that order of increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	path, err := FilePath()
	if err != nil {
		return cfg, err
	}
	if _, err := LoadFile(path, &cfg); err != nil {
		return cfg, err
	}

	if err := LoadDotenv(".env"); err != nil {
		return cfg, err
	}

	if err := ApplyEnv(&cfg, osLookup); err != nil {
		return cfg, err
	}

	return cfg, nil
}
