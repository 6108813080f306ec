// Package evasion supplies the browser identity and the randomized pauses
// placed around navigation so a scrape does not present a fixed fingerprint
// or a fixed request cadence.
//
// Nothing here affects what is extracted; a policy only changes detection
// risk and wall-clock duration.
package evasion

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pevans/holdings/logging"
	"github.com/rs/zerolog"
)

// ErrEmptyPool is returned when a policy is built without any user agents.
var ErrEmptyPool = errors.New("user agent pool is empty")

// DefaultUserAgents is the identity pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
}

// Window is an inclusive range of milliseconds to pause for.
type Window struct {
	MinMS int `yaml:"min_ms"`
	MaxMS int `yaml:"max_ms"`
}

// Validate checks that the window is non-negative and ordered.
func (w Window) Validate() error {
	if w.MinMS < 0 {
		return fmt.Errorf("min_ms must not be negative (got %d)", w.MinMS)
	}
	if w.MaxMS < w.MinMS {
		return fmt.Errorf("max_ms (%d) must not be less than min_ms (%d)", w.MaxMS, w.MinMS)
	}
	return nil
}

// Windows groups the pause ranges by the action they follow.
type Windows struct {
	// TabSettle follows activating the holdings tab.
	TabSettle Window `yaml:"tab_settle"`
	// ScrollSettle follows scrolling to the bottom before extraction.
	ScrollSettle Window `yaml:"scroll_settle"`
	// PageAdvance follows clicking the next-page control.
	PageAdvance Window `yaml:"page_advance"`
}

// DefaultWindows returns the pause ranges matched to each action's risk.
func DefaultWindows() Windows {
	return Windows{
		TabSettle:    Window{MinMS: 4000, MaxMS: 7000},
		ScrollSettle: Window{MinMS: 2000, MaxMS: 4000},
		PageAdvance:  Window{MinMS: 5000, MaxMS: 10000},
	}
}

// Validate checks every window.
func (w Windows) Validate() error {
	for name, window := range map[string]Window{
		"tab_settle":    w.TabSettle,
		"scroll_settle": w.ScrollSettle,
		"page_advance":  w.PageAdvance,
	} {
		if err := window.Validate(); err != nil {
			return fmt.Errorf("invalid %s window: %w", name, err)
		}
	}
	return nil
}

// Policy chooses the session identity and performs randomized pauses.
type Policy interface {
	// UserAgent returns an identity for a new browser session.
	UserAgent() string
	// Pause blocks for a duration drawn from w, or until ctx is done.
	Pause(ctx context.Context, w Window) error
}

// Random draws identities and pause lengths uniformly from its source.
type Random struct {
	agents []string
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a policy over the given user agents. A nil rng uses a
// randomly seeded PCG source.
func NewRandom(agents []string, rng *rand.Rand) (*Random, error) {
	if len(agents) == 0 {
		return nil, ErrEmptyPool
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := make([]string, len(agents))
	copy(pool, agents)

	return &Random{
		agents: pool,
		logger: logging.NewLogger("evasion"),
		rng:    rng,
	}, nil
}

// UserAgent picks one identity from the pool.
func (r *Random) UserAgent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[r.rng.IntN(len(r.agents))]
}

// Draw returns a duration of a whole number of milliseconds in
// [w.MinMS, w.MaxMS].
func (r *Random) Draw(w Window) time.Duration {
	if w.MaxMS <= w.MinMS {
		return time.Duration(w.MinMS) * time.Millisecond
	}

	r.mu.Lock()
	ms := w.MinMS + r.rng.IntN(w.MaxMS-w.MinMS+1)
	r.mu.Unlock()

	return time.Duration(ms) * time.Millisecond
}

// Pause waits for a drawn duration.
func (r *Random) Pause(ctx context.Context, w Window) error {
	delay := r.Draw(w)
	r.logger.Info().
		Int64("delay_ms", delay.Milliseconds()).
		Msgf("Waiting %dms before next action...", delay.Milliseconds())

	return Sleep(ctx, delay)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
