package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/pevans/holdings/logging"
	"github.com/rs/zerolog"
)

// Session is a single Chrome tab. It is not safe for concurrent use.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	closeErr    error

	opts   Options
	logger zerolog.Logger
}

// Launch starts Chrome presenting userAgent and opens a blank tab. The
// browser lives until Close is called or ctx is cancelled.
func Launch(ctx context.Context, opts Options, userAgent string) (*Session, error) {
	logger := logging.NewLogger("browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Debug().Msgf(format, args...)
		}),
	)

	s := &Session{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        opts,
		logger:      logger,
	}

	setup := []chromedp.Action{network.Enable()}
	if opts.Stealth {
		setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, setup...); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug().
		Bool("headless", opts.Headless).
		Bool("stealth", opts.Stealth).
		Str("proxy", opts.Proxy).
		Msg("Browser started")

	return s, nil
}

// run executes actions on the tab, stopping early when ctx is done. The tab
// itself survives cancellation of ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// runTimed is run bounded by the action timeout.
func (s *Session) runTimed(ctx context.Context, actions ...chromedp.Action) error {
	if s.opts.ActionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ActionTimeout)
		defer cancel()
	}
	return s.run(ctx, actions...)
}

// Open navigates to url and waits until the network is idle.
func (s *Session) Open(ctx context.Context, url string) error {
	if s.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NavigationTimeout)
		defer cancel()
	}

	tracker := newIdleTracker()
	listenCtx, stopListening := context.WithCancel(s.ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, tracker.observe)

	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := tracker.wait(ctx); err != nil {
		return fmt.Errorf("network did not go idle: %w", err)
	}
	return nil
}

// WaitFor blocks until selector matches an element in the document.
func (s *Session) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// Texts returns the trimmed text content of every element matching
// selector.
func (s *Session) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).map((el) => el.textContent.trim())`,
		jsString(selector),
	)
	if err := s.runTimed(ctx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", selector, err)
	}
	return texts, nil
}

// ClickNth clicks the index-th element matching selector.
func (s *Session) ClickNth(ctx context.Context, selector string, index int) error {
	var nodes []*cdp.Node
	if err := s.runTimed(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll)); err != nil {
		return fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("no element %d for %q (found %d)", index, selector, len(nodes))
	}
	if err := s.runTimed(ctx, chromedp.MouseClickNode(nodes[index])); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first visible element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.runTimed(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

// ScrollToBottom scrolls the window to the end of the document.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	return s.runTimed(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// OuterHTML returns the outer HTML of the first element matching selector.
func (s *Session) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.runTimed(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture %q: %w", selector, err)
	}
	return html, nil
}

// controlState is the JSON shape returned by the next-control probe.
type controlState struct {
	Present  bool `json:"present"`
	Disabled bool `json:"disabled"`
}

// NextState reports whether selector matches a control and whether that
// control is disabled.
func (s *Session) NextState(ctx context.Context, selector string) (bool, bool, error) {
	var state controlState
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return { present: !!el, disabled: !!el && (el.disabled === true || el.getAttribute("aria-disabled") === "true") };
	})()`, jsString(selector))

	if err := s.runTimed(ctx, chromedp.Evaluate(script, &state)); err != nil {
		return false, false, fmt.Errorf("failed to inspect %q: %w", selector, err)
	}
	return state.Present, state.Disabled, nil
}

// Close shuts the browser down. Only the first call has any effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
