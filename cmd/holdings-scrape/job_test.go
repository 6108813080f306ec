package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/holdings/export"
	"github.com/pevans/holdings/holding"
	"github.com/pevans/holdings/metrics"
	"github.com/pevans/holdings/runs"
	"github.com/pevans/holdings/scrape"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to the runner interface.
type runnerFunc func(ctx context.Context) (*scrape.Result, error)

func (f runnerFunc) Run(ctx context.Context) (*scrape.Result, error) {
	return f(ctx)
}

func newTestJob(t *testing.T, withHistory bool) *job {
	t.Helper()
	dir := t.TempDir()

	j := &job{
		url:         "https://example.com/filer/acme",
		outputPath:  filepath.Join(dir, "holdings.csv"),
		metricsPath: filepath.Join(dir, "holdings.prom"),
		collector:   metrics.NewCollector(),
		logger:      zerolog.Nop(),
	}

	tick := time.Date(2024, 11, 14, 9, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		tick = tick.Add(30 * time.Second)
		return tick
	}

	if withHistory {
		store, err := runs.NewStore(filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		j.history = store
	}
	return j
}

func testRecords() []holding.Record {
	return []holding.Record{
		holding.NewRecord([]string{"AAPL", "", "Information Technology", "300,000,000"}, "Apple Inc"),
	}
}

func TestExecute_Success(t *testing.T) {
	j := newTestJob(t, true)
	j.scraper = runnerFunc(func(ctx context.Context) (*scrape.Result, error) {
		j.begin("agent-one")
		return &scrape.Result{
			Records:   testRecords(),
			Pages:     2,
			PageRows:  []int{25, 3},
			RawRows:   28,
			Stop:      scrape.StopNoNextPage,
			UserAgent: "agent-one",
		}, nil
	})

	require.NoError(t, j.execute(context.Background()))

	data, err := os.ReadFile(j.outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Information Technology")

	history, err := j.history.List(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	run := history[0]
	assert.Equal(t, runs.StatusSucceeded, run.Status)
	assert.Equal(t, "agent-one", run.UserAgent)
	assert.Equal(t, 2, run.Pages)
	assert.Equal(t, 28, run.RawRows)
	assert.Equal(t, 1, run.ValidRows)
	assert.Equal(t, "no_next_page", run.Stop)

	stored, err := j.history.Records(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, testRecords(), stored)

	assert.Equal(t, float64(1), testutil.ToFloat64(j.collector.RowsValid))
	assert.FileExists(t, j.metricsPath)
}

func TestExecute_ScrapeFailure(t *testing.T) {
	j := newTestJob(t, true)
	j.scraper = runnerFunc(func(ctx context.Context) (*scrape.Result, error) {
		j.begin("agent-one")
		return nil, fmt.Errorf("page 3: %w", scrape.ErrTableLoadTimeout)
	})

	err := j.execute(context.Background())
	assert.ErrorIs(t, err, scrape.ErrTableLoadTimeout)
	assert.NoFileExists(t, j.outputPath)

	history, err := j.history.List(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, runs.StatusFailed, history[0].Status)
	assert.Equal(t, "table_load_timeout", history[0].FailKind)

	assert.Equal(t, float64(1), testutil.ToFloat64(j.collector.Failures.WithLabelValues("table_load_timeout")))
}

func TestExecute_EmptyResult(t *testing.T) {
	j := newTestJob(t, true)
	j.scraper = runnerFunc(func(ctx context.Context) (*scrape.Result, error) {
		return &scrape.Result{Records: []holding.Record{}, Pages: 1, Stop: scrape.StopStalled}, nil
	})

	err := j.execute(context.Background())
	assert.ErrorIs(t, err, export.ErrEmptyResultExport)
	assert.NoFileExists(t, j.outputPath)

	history, err := j.history.List(0)
	require.NoError(t, err)
	require.Len(t, history, 1, "a run is recorded even when launch never reported an identity")
	assert.Equal(t, "empty_result_export", history[0].FailKind)
}

func TestExecute_WithoutHistoryOrMetrics(t *testing.T) {
	j := newTestJob(t, false)
	j.metricsPath = ""
	j.scraper = runnerFunc(func(ctx context.Context) (*scrape.Result, error) {
		j.begin("agent-one")
		return &scrape.Result{Records: testRecords(), Pages: 1}, nil
	})

	require.NoError(t, j.execute(context.Background()))
	assert.FileExists(t, j.outputPath)
}

func TestBegin_RecordsOnce(t *testing.T) {
	j := newTestJob(t, true)

	j.begin("agent-one")
	j.begin("agent-two")

	history, err := j.history.List(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "agent-one", history[0].UserAgent)
}
