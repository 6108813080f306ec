//go:build integration

package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pevans/holdings/evasion"
	"github.com/pevans/holdings/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdingsPage mimics the filer page: the table only renders after the
// Holdings tab is clicked, and a next button pages through three pages
const holdingsPage = `<!doctype html>
<html><body>
<div class="v-tabs">
  <div class="v-tab">Summary</div>
  <div class="v-tab" id="holdings-tab"> Holdings </div>
</div>
<div id="content"></div>
<script>
const pages = [
  [["AAPL", "Apple Inc."], ["BAC", "Bank of America Corp"]],
  [["KO", ""], ["CVX", "Chevron Corp"]],
  [["OXY", "Occidental Petroleum"]],
];
let current = 0;

function render() {
  const rows = pages[current].map(([ticker, name]) => {
    const link = name ? '<a title="' + name + '">' + ticker + '</a>' : ticker;
    const cells = ['<td>' + link + '</td>', '<td>h</td>', '<td>Sector</td>', '<td>1,000</td>'];
    return '<tr>' + cells.join('') + '</tr>';
  }).join('');
  const disabled = current === pages.length - 1 ? ' disabled' : '';
  document.getElementById('content').innerHTML =
    '<div class="v-data-table"><table><tbody>' + rows + '</tbody></table></div>' +
    '<button aria-label="Next page"' + disabled + ' onclick="next()">Next</button>';
}

function next() {
  current++;
  setTimeout(render, 50);
}

document.getElementById('holdings-tab').addEventListener('click', () => setTimeout(render, 100));
</script>
</body></html>`

// TestSession_Scrape drives the scraper against a local page in Chrome
func TestSession_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(holdingsPage))
	}))
	defer server.Close()

	config := scrape.DefaultConfig()
	config.URL = server.URL
	config.TabTimeout = 10 * time.Second
	config.TableTimeout = 10 * time.Second
	config.Delays = evasion.Windows{
		TabSettle:    evasion.Window{MinMS: 200, MaxMS: 200},
		ScrollSettle: evasion.Window{MinMS: 0, MaxMS: 0},
		PageAdvance:  evasion.Window{MinMS: 200, MaxMS: 200},
	}

	policy, err := evasion.NewRandom(evasion.DefaultUserAgents, nil)
	require.NoError(t, err)

	launch := func(ctx context.Context, userAgent string) (scrape.Session, error) {
		session, err := Launch(ctx, DefaultOptions(), userAgent)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := scrape.New(config, launch, policy).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, scrape.StopNoNextPage, result.Stop)
	require.Len(t, result.Records, 5)
	assert.Equal(t, `AAPL "Apple Inc."`, result.Records[0].Stock)
	assert.Equal(t, "KO", result.Records[2].Stock)
	assert.Equal(t, "1,000", result.Records[4].SharesHeld)
}

// TestSession_CloseTwice verifies Close is idempotent
func TestSession_CloseTwice(t *testing.T) {
	session, err := Launch(context.Background(), DefaultOptions(), evasion.DefaultUserAgents[0])
	require.NoError(t, err)

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close())
}
