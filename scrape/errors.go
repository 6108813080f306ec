package scrape

import "errors"

// Terminal conditions of a run. None of them is retried.
var (
	// ErrTabNotFound means the tab controls did not render in time, or none
	// of them carried the configured label.
	ErrTabNotFound = errors.New("holdings tab not found")

	// ErrTableLoadTimeout means no data row appeared in time after the tab
	// was activated.
	ErrTableLoadTimeout = errors.New("holdings table did not load")

	// ErrNavigationFailure means the next-page control could not be
	// inspected or activated.
	ErrNavigationFailure = errors.New("failed to navigate to next page")
)

// FailureKind returns a short label for err, used in metrics and run
// history.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTabNotFound):
		return "tab_not_found"
	case errors.Is(err, ErrTableLoadTimeout):
		return "table_load_timeout"
	case errors.Is(err, ErrNavigationFailure):
		return "navigation_failure"
	default:
		return "other"
	}
}
