// Package scrape drives a browser session through the holdings table: it
// activates the holdings tab, extracts every page of rows, decides when the
// last page has been reached, and returns the validated records.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/extract"
	"github.com/pevans/holdings/holding"
	"github.com/pevans/holdings/logging"
	"github.com/rs/zerolog"
)

// Result is the outcome of a successful run.
type Result struct {
	// Records are the rows that passed validation, in encounter order.
	Records []holding.Record
	// Pages is the number of pages extracted.
	Pages int
	// PageRows holds the raw row count of each extracted page.
	PageRows []int
	// RawRows is the accumulated row count before validation.
	RawRows int
	// Stop is why pagination ended.
	Stop Decision
	// UserAgent is the identity the session presented.
	UserAgent string
}

// Scraper runs the pagination loop against one browser session per Run.
type Scraper struct {
	config   Config
	launch   LaunchFunc
	policy   evasion.Policy
	observer Observer
	logger   zerolog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithObserver reports per-page progress to o.
func WithObserver(o Observer) Option {
	return func(s *Scraper) {
		s.observer = o
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// New creates a scraper. The config is assumed to be valid.
func New(config Config, launch LaunchFunc, policy evasion.Policy, opts ...Option) *Scraper {
	s := &Scraper{
		config: config,
		launch: launch,
		policy: policy,
		logger: logging.NewLogger("scrape"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the mutable state of one pass through the loop.
type run struct {
	*Scraper

	session   Session
	navigator *Navigator

	records  []holding.Record
	pageRows []int
	page     int
	previous int
	stop     Decision
	err      error
}

// Run scrapes every page and returns the validated records. The browser
// session is acquired once and released exactly once, on success and on
// failure. No partial result is returned on failure.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	userAgent := s.policy.UserAgent()

	s.logger.Info().Msg("Launching browser...")
	session, err := s.launch(ctx, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close browser")
			return
		}
		s.logger.Info().Msg("Browser closed.")
	}()

	r := &run{
		Scraper:   s,
		session:   session,
		navigator: NewNavigator(session, s.config.NextSelector),
		page:      1,
	}

	state := StateInit
	for !state.Terminal() {
		s.logger.Debug().Stringer("state", state).Int("page", r.page).Msg("Entering state")
		state = r.step(ctx, state)
	}

	if state == StateFailed {
		s.logger.Error().Err(r.err).Int("page", r.page).Msg("Scrape failed")
		return nil, r.err
	}

	s.logger.Info().Int("rows", len(r.records)).Msgf("Total rows extracted: %d", len(r.records))
	valid := holding.Filter(r.records)
	s.logger.Info().Int("rows", len(valid)).Msgf("Valid rows after filtering: %d", len(valid))

	return &Result{
		Records:   valid,
		Pages:     len(r.pageRows),
		PageRows:  r.pageRows,
		RawRows:   len(r.records),
		Stop:      r.stop,
		UserAgent: userAgent,
	}, nil
}

// step executes one state and returns the next.
func (r *run) step(ctx context.Context, state State) State {
	switch state {
	case StateInit:
		return r.init(ctx)
	case StateTabSearch:
		return r.tabSearch(ctx)
	case StateLoading:
		return r.loading(ctx)
	case StateExtracting:
		return r.extracting(ctx)
	case StateDeciding:
		return r.deciding(ctx)
	case StateAdvancing:
		return r.advancing(ctx)
	default:
		return r.fail(fmt.Errorf("unexpected state %s", state))
	}
}

func (r *run) fail(err error) State {
	r.err = err
	return StateFailed
}

func (r *run) init(ctx context.Context) State {
	r.logger.Info().Str("url", r.config.URL).Msg("Navigating to target...")
	if err := r.session.Open(ctx, r.config.URL); err != nil {
		return r.fail(fmt.Errorf("failed to open %s: %w", r.config.URL, err))
	}

	r.logger.Info().Str("label", r.config.TabLabel).Msgf("Waiting for the %q tab...", r.config.TabLabel)
	if err := r.waitFor(ctx, r.config.TabSelector, r.config.TabTimeout, ErrTabNotFound); err != nil {
		return r.fail(err)
	}
	return StateTabSearch
}

func (r *run) tabSearch(ctx context.Context) State {
	texts, err := r.session.Texts(ctx, r.config.TabSelector)
	if err != nil {
		return r.fail(fmt.Errorf("failed to read tab labels: %w", err))
	}

	index := -1
	for i, text := range texts {
		if strings.TrimSpace(text) == r.config.TabLabel {
			index = i
			break
		}
	}
	if index < 0 {
		return r.fail(fmt.Errorf("%w: no tab labelled %q among %d tabs", ErrTabNotFound, r.config.TabLabel, len(texts)))
	}

	r.logger.Info().Int("tab", index).Msgf("Found the %q tab. Clicking it...", r.config.TabLabel)
	if err := r.session.ClickNth(ctx, r.config.TabSelector, index); err != nil {
		return r.fail(fmt.Errorf("%w: failed to click tab: %w", ErrTabNotFound, err))
	}
	if err := r.policy.Pause(ctx, r.config.Delays.TabSettle); err != nil {
		return r.fail(err)
	}
	return StateLoading
}

func (r *run) loading(ctx context.Context) State {
	r.logger.Info().Msg("Waiting for table to load...")
	if err := r.waitFor(ctx, r.config.RowWaitSelector(), r.config.TableTimeout, ErrTableLoadTimeout); err != nil {
		return r.fail(err)
	}
	return StateExtracting
}

func (r *run) extracting(ctx context.Context) State {
	r.logger.Info().Int("page", r.page).Msgf("Extracting data from page %d...", r.page)

	if err := r.session.ScrollToBottom(ctx); err != nil {
		return r.fail(fmt.Errorf("failed to scroll page %d: %w", r.page, err))
	}
	r.logger.Debug().Msg("Scrolled to the bottom of the page.")
	if err := r.policy.Pause(ctx, r.config.Delays.ScrollSettle); err != nil {
		return r.fail(err)
	}

	html, err := r.session.OuterHTML(ctx, r.config.TableSelector)
	if err != nil {
		return r.fail(fmt.Errorf("failed to capture table on page %d: %w", r.page, err))
	}
	snapshot, err := extract.RowsFromHTML(html, r.config.RowSelector)
	if err != nil {
		return r.fail(err)
	}

	r.logger.Info().Int("page", r.page).Int("rows", len(snapshot)).Msgf("Extracted %d rows.", len(snapshot))
	r.records = append(r.records, snapshot...)
	r.pageRows = append(r.pageRows, len(snapshot))
	if r.observer != nil {
		r.observer.PageExtracted(r.page, len(snapshot))
	}
	return StateDeciding
}

func (r *run) deciding(ctx context.Context) State {
	total := len(r.records)

	decision, err := r.navigator.Next(ctx, total, r.previous)
	if err != nil {
		return r.fail(err)
	}
	r.previous = total

	switch decision {
	case StopStalled:
		r.logger.Info().Msg("No new data loaded. Assuming this is the last page.")
	case StopNoNextPage:
		r.logger.Info().Msg("No more pages left. Exiting loop.")
	default:
		return StateAdvancing
	}

	r.stop = decision
	return StateDone
}

func (r *run) advancing(ctx context.Context) State {
	r.logger.Info().Int("page", r.page+1).Msg("Navigating to next page...")
	if err := r.navigator.Advance(ctx); err != nil {
		return r.fail(err)
	}
	if err := r.policy.Pause(ctx, r.config.Delays.PageAdvance); err != nil {
		return r.fail(err)
	}

	r.page++
	return StateExtracting
}

// waitFor waits for selector under its own deadline. Running out of time is
// reported as sentinel; cancellation of ctx itself is returned unchanged.
func (r *run) waitFor(ctx context.Context, selector string, timeout time.Duration, sentinel error) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := r.session.WaitFor(waitCtx, selector)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %q not present after %s", sentinel, selector, timeout)
	}
	return fmt.Errorf("failed waiting for %q: %w", selector, err)
}
