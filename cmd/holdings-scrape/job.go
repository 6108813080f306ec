package main

import (
	"context"
	"errors"
	"time"

	"github.com/pevans/holdings/export"
	"github.com/pevans/holdings/metrics"
	"github.com/pevans/holdings/runs"
	"github.com/pevans/holdings/scrape"
	"github.com/rs/zerolog"
)

// runner is the part of *scrape.Scraper a job drives.
type runner interface {
	Run(ctx context.Context) (*scrape.Result, error)
}

// job is one scrape followed by export, with its outcome recorded in the
// run history and metrics. History and metrics failures are logged and
// never fail the job.
type job struct {
	url         string
	outputPath  string
	metricsPath string

	scraper   runner
	history   *runs.Store // nil disables history
	collector *metrics.Collector
	logger    zerolog.Logger
	now       func() time.Time

	run *runs.Run
}

// begin records the start of the run once the session identity is known.
func (j *job) begin(userAgent string) {
	if j.history == nil || j.run != nil {
		return
	}

	run, err := j.history.Start(j.url, userAgent)
	if err != nil {
		j.logger.Warn().Err(err).Msg("Failed to record run start")
		return
	}
	j.run = run
	j.logger.Debug().Str("run_id", run.RunID.String()).Msg("Recording run")
}

// execute scrapes, exports and records the outcome.
func (j *job) execute(ctx context.Context) error {
	started := j.now()

	j.logger.Info().Msg("Starting scraping process...")
	result, err := j.scraper.Run(ctx)
	if err == nil {
		j.logger.Info().
			Int("rows", len(result.Records)).
			Msgf("Scraping completed. Valid data length: %d", len(result.Records))

		j.logger.Info().Str("path", j.outputPath).Msg("Writing data to file...")
		err = export.Write(j.outputPath, result.Records)
	}

	finished := j.now()
	duration := finished.Sub(started)

	if err != nil {
		kind := failureKind(err)
		j.collector.RunFailed(kind, duration)
		j.recordFailure(kind, err)
		j.writeMetrics()
		return err
	}

	j.logger.Info().Str("path", j.outputPath).Msg("File successfully created.")
	j.collector.RunSucceeded(len(result.Records), duration, finished)
	j.recordSuccess(result)
	j.writeMetrics()
	return nil
}

func failureKind(err error) string {
	if errors.Is(err, export.ErrEmptyResultExport) {
		return "empty_result_export"
	}
	return scrape.FailureKind(err)
}

func (j *job) recordSuccess(result *scrape.Result) {
	if j.history == nil {
		return
	}
	j.begin(result.UserAgent)
	if j.run == nil {
		return
	}

	summary := runs.Summary{
		Pages:      result.Pages,
		RawRows:    result.RawRows,
		Stop:       result.Stop.String(),
		OutputPath: j.outputPath,
	}
	if err := j.history.Succeed(j.run.RunID, summary, result.Records); err != nil {
		j.logger.Warn().Err(err).Msg("Failed to record run result")
	}
}

func (j *job) recordFailure(kind string, cause error) {
	if j.history == nil {
		return
	}
	j.begin("")
	if j.run == nil {
		return
	}

	if err := j.history.Fail(j.run.RunID, kind, cause.Error()); err != nil {
		j.logger.Warn().Err(err).Msg("Failed to record run failure")
	}
}

func (j *job) writeMetrics() {
	if j.metricsPath == "" {
		return
	}
	if err := j.collector.WriteTextfile(j.metricsPath); err != nil {
		j.logger.Warn().Err(err).Msg("Failed to write metrics")
	}
}
