package scrape

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/holding"
)

// fakeSession serves scripted table pages and records how it was driven
type fakeSession struct {
	mu sync.Mutex

	tabs  []string
	pages [][]holding.Record
	// nextEnabledOnLast keeps the next control enabled on the final page
	nextEnabledOnLast bool
	// nextMissing removes the next control entirely
	nextMissing bool

	// blockTabs and blockRows make the corresponding waits hang until the
	// context is done
	blockTabs bool
	blockRows bool

	openErr      error
	clickNextErr error
	nextStateErr error

	current     int
	clickedTab  int
	opened      []string
	nextQueries int
	nextClicks  int
	extractions int
	closeCount  int
	closeErr    error
}

func newFakeSession(pages ...[]holding.Record) *fakeSession {
	return &fakeSession{
		tabs:       []string{"Summary", " Holdings ", "Filings"},
		pages:      pages,
		clickedTab: -1,
	}
}

func (f *fakeSession) Open(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, url)
	return f.openErr
}

func (f *fakeSession) WaitFor(ctx context.Context, selector string) error {
	block := false
	switch selector {
	case DefaultTabSelector:
		block = f.blockTabs
	case DefaultConfig().RowWaitSelector():
		block = f.blockRows
	default:
		return errors.New("unexpected selector " + selector)
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSession) Texts(ctx context.Context, selector string) ([]string, error) {
	return f.tabs, nil
}

func (f *fakeSession) ClickNth(ctx context.Context, selector string, index int) error {
	f.clickedTab = index
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	f.nextClicks++
	if f.clickNextErr != nil {
		return f.clickNextErr
	}
	if f.current < len(f.pages) {
		f.current++
	}
	return nil
}

func (f *fakeSession) ScrollToBottom(ctx context.Context) error {
	return nil
}

func (f *fakeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	f.extractions++

	var rows []holding.Record
	if f.current < len(f.pages) {
		rows = f.pages[f.current]
	}

	var b strings.Builder
	b.WriteString(`<div class="v-data-table"><table><tbody>`)
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, value := range row.Values() {
			b.WriteString("<td>" + value + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></div>")
	return b.String(), nil
}

func (f *fakeSession) NextState(ctx context.Context, selector string) (bool, bool, error) {
	f.nextQueries++
	if f.nextStateErr != nil {
		return false, false, f.nextStateErr
	}
	if f.nextMissing {
		return false, false, nil
	}
	last := f.current >= len(f.pages)-1
	return true, last && !f.nextEnabledOnLast, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return f.closeErr
}

// launcher returns a LaunchFunc that hands out session and captures the
// identity it was launched with
func (f *fakeSession) launcher(userAgent *string) LaunchFunc {
	return func(ctx context.Context, ua string) (Session, error) {
		if userAgent != nil {
			*userAgent = ua
		}
		return f, nil
	}
}

// fakePolicy never sleeps and counts pauses per window
type fakePolicy struct {
	agent  string
	pauses []evasion.Window
	err    error
}

func (p *fakePolicy) UserAgent() string {
	return p.agent
}

func (p *fakePolicy) Pause(ctx context.Context, w evasion.Window) error {
	p.pauses = append(p.pauses, w)
	if p.err != nil {
		return p.err
	}
	return ctx.Err()
}

// pageObserver records per-page notifications
type pageObserver struct {
	pages []int
	rows  []int
}

func (o *pageObserver) PageExtracted(page, rows int) {
	o.pages = append(o.pages, page)
	o.rows = append(o.rows, rows)
}

// holdingsPage builds n valid rows whose tickers start with prefix
func holdingsPage(prefix string, n int) []holding.Record {
	records := make([]holding.Record, n)
	for i := range records {
		records[i] = holding.Record{
			Stock:      prefix + strings.Repeat("X", i+1),
			Sector:     "Technology",
			SharesHeld: "1,000",
		}
	}
	return records
}
