package scrape

import (
	"errors"
	"fmt"
	"time"

	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/extract"
)

// Defaults for the filer holdings page.
const (
	DefaultURL           = "https://whalewisdom.com/filer/berkshire-hathaway-inc"
	DefaultTabLabel      = "Holdings"
	DefaultTabSelector   = "div.v-tab"
	DefaultTableSelector = "div.v-data-table"
	DefaultNextSelector  = "button[aria-label='Next page']"
	DefaultTabTimeout    = 60 * time.Second
	DefaultTableTimeout  = 60 * time.Second
)

// Config describes where the holdings table lives and how long to wait for
// it.
type Config struct {
	URL string `yaml:"url"`

	// TabLabel is the exact trimmed text of the tab to activate.
	TabLabel    string `yaml:"tab_label"`
	TabSelector string `yaml:"tab_selector"`

	// TableSelector is the container whose HTML is captured each page.
	TableSelector string `yaml:"table_selector"`
	// RowSelector selects data rows relative to TableSelector.
	RowSelector  string `yaml:"row_selector"`
	NextSelector string `yaml:"next_selector"`

	TabTimeout   time.Duration `yaml:"tab_timeout"`
	TableTimeout time.Duration `yaml:"table_timeout"`

	Delays evasion.Windows `yaml:"delays"`
}

// DefaultConfig returns the configuration for the filer holdings page.
func DefaultConfig() Config {
	return Config{
		URL:           DefaultURL,
		TabLabel:      DefaultTabLabel,
		TabSelector:   DefaultTabSelector,
		TableSelector: DefaultTableSelector,
		RowSelector:   extract.DefaultRowSelector,
		NextSelector:  DefaultNextSelector,
		TabTimeout:    DefaultTabTimeout,
		TableTimeout:  DefaultTableTimeout,
		Delays:        evasion.DefaultWindows(),
	}
}

// RowWaitSelector is the absolute selector of a data row, used to detect
// that the table has loaded.
func (c Config) RowWaitSelector() string {
	return c.TableSelector + " " + c.RowSelector
}

// Validate checks that every selector and timeout is usable.
func (c Config) Validate() error {
	var errs []error

	for name, value := range map[string]string{
		"url":            c.URL,
		"tab_label":      c.TabLabel,
		"tab_selector":   c.TabSelector,
		"table_selector": c.TableSelector,
		"row_selector":   c.RowSelector,
		"next_selector":  c.NextSelector,
	} {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	if c.TabTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tab_timeout must be positive (got %s)", c.TabTimeout))
	}
	if c.TableTimeout <= 0 {
		errs = append(errs, fmt.Errorf("table_timeout must be positive (got %s)", c.TableTimeout))
	}
	if err := c.Delays.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
