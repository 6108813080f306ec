package scrape

import (
	"context"
	"fmt"
)

// Decision is the navigator's verdict after a page has been extracted.
type Decision int

const (
	// Continue means another page exists and should be extracted.
	Continue Decision = iota
	// StopStalled means the accumulated row count did not grow.
	StopStalled
	// StopNoNextPage means the next-page control is absent or disabled.
	StopNoNextPage
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case StopStalled:
		return "stalled"
	case StopNoNextPage:
		return "no_next_page"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide applies the stop conditions in order. A stall stops the loop
// whatever the state of the next-page control.
//
// The stall check compares cumulative counts, so it only fires when a page
// contributes no rows at all.
func Decide(total, previous int, nextPresent, nextDisabled bool) Decision {
	if total == previous {
		return StopStalled
	}
	if !nextPresent || nextDisabled {
		return StopNoNextPage
	}
	return Continue
}

// Navigator inspects and activates the next-page control.
type Navigator struct {
	session  Session
	selector string
}

// NewNavigator creates a navigator for the control matching selector.
func NewNavigator(session Session, selector string) *Navigator {
	return &Navigator{session: session, selector: selector}
}

// Next decides whether to continue given the accumulated row count and the
// count after the previous page. The page is only queried when the row count
// grew.
func (n *Navigator) Next(ctx context.Context, total, previous int) (Decision, error) {
	if total == previous {
		return StopStalled, nil
	}

	present, disabled, err := n.session.NextState(ctx, n.selector)
	if err != nil {
		return Continue, fmt.Errorf("%w: failed to inspect next-page control: %w", ErrNavigationFailure, err)
	}

	return Decide(total, previous, present, disabled), nil
}

// Advance activates the next-page control.
func (n *Navigator) Advance(ctx context.Context) error {
	if err := n.session.Click(ctx, n.selector); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigationFailure, err)
	}
	return nil
}
