// Command holdings-scrape extracts every page of a filer's holdings table
// and writes the valid rows to a CSV or XLSX file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/holdings/browser"
	"github.com/pevans/holdings/config"
	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/logging"
	"github.com/pevans/holdings/metrics"
	"github.com/pevans/holdings/runs"
	"github.com/pevans/holdings/scrape"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Flags override the file and environment; each usage names its
	// environment variable.
	flag.StringVar(&cfg.Scrape.URL, "url", cfg.Scrape.URL, "Filer page to scrape (HOLDINGS_URL)")
	flag.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output file, .csv or .xlsx (HOLDINGS_OUTPUT)")
	flag.StringVar(&cfg.HistoryDSN, "history", cfg.HistoryDSN, "Run history database, empty disables (HOLDINGS_HISTORY_DSN)")
	flag.StringVar(&cfg.MetricsPath, "metrics", cfg.MetricsPath, "Prometheus textfile to write, empty disables (HOLDINGS_METRICS_PATH)")
	flag.BoolVar(&cfg.Browser.Headless, "headless", cfg.Browser.Headless, "Run Chrome without a window (HOLDINGS_HEADLESS)")
	flag.StringVar(&cfg.Browser.Proxy, "proxy", cfg.Browser.Proxy, "Proxy server for Chrome, e.g. socks5://127.0.0.1:9050 (HOLDINGS_PROXY)")
	flag.DurationVar(&cfg.Scrape.TableTimeout, "table-timeout", cfg.Scrape.TableTimeout, "Wait for table rows after each page load (HOLDINGS_TABLE_TIMEOUT)")
	logLevel := flag.String("log-level", string(cfg.Log.Level), "Log level: debug, info, warn, error (HOLDINGS_LOG_LEVEL)")
	flag.Parse()
	cfg.Log.Level = logging.LogLevel(*logLevel)

	logger := logging.Setup(cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	policy, err := evasion.NewRandom(cfg.UserAgents, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create evasion policy")
	}

	var history *runs.Store
	if cfg.HistoryDSN != "" {
		history, err = runs.NewStore(cfg.HistoryDSN)
		if err != nil {
			logger.Warn().Err(err).Str("dsn", cfg.HistoryDSN).Msg("Run history unavailable")
			history = nil
		} else {
			defer history.Close()
		}
	}

	collector := metrics.NewCollector()
	j := &job{
		url:         cfg.Scrape.URL,
		outputPath:  cfg.OutputPath,
		metricsPath: cfg.MetricsPath,
		history:     history,
		collector:   collector,
		logger:      logging.NewLogger("holdings-scrape"),
		now:         time.Now,
	}

	launch := func(ctx context.Context, userAgent string) (scrape.Session, error) {
		j.begin(userAgent)
		session, err := browser.Launch(ctx, cfg.Browser, userAgent)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	j.scraper = scrape.New(cfg.Scrape, launch, policy, scrape.WithObserver(collector))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = j.execute(ctx)
	stop()
	if err != nil {
		logger.Error().Err(err).Str("kind", failureKind(err)).Msg("Error during scraping process")
		if history != nil {
			history.Close()
		}
		os.Exit(1)
	}
}
