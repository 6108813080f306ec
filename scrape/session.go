package scrape

import "context"

// Session is one live browser page. The scraper only ever calls these
// primitives; it owns no rendering logic.
type Session interface {
	// Open navigates to url and waits for the network to go idle.
	Open(ctx context.Context, url string) error
	// WaitFor blocks until selector matches an element or ctx is done.
	WaitFor(ctx context.Context, selector string) error
	// Texts returns the trimmed text content of every element matching
	// selector, in document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// ClickNth clicks the index-th element matching selector.
	ClickNth(ctx context.Context, selector string, index int) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// ScrollToBottom scrolls the window to the bottom of the document.
	ScrollToBottom(ctx context.Context) error
	// OuterHTML returns the outer HTML of the first element matching
	// selector.
	OuterHTML(ctx context.Context, selector string) (string, error)
	// NextState reports whether an element matching selector exists and
	// whether it is disabled. It does not modify the page.
	NextState(ctx context.Context, selector string) (present, disabled bool, err error)
	// Close releases the page and its browser.
	Close() error
}

// LaunchFunc starts a browser session presenting userAgent.
type LaunchFunc func(ctx context.Context, userAgent string) (Session, error)

// Observer is notified of scrape progress.
type Observer interface {
	PageExtracted(page, rows int)
}
