// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/config"
	"github.com/abelzeko/water-feed/internal/entities"
	"github.com/abelzeko/water-feed/internal/integration"
	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/metrics"
	"github.com/abelzeko/water-feed/internal/records"
	"github.com/abelzeko/water-feed/internal/repository"
)

// Fetcher retrieves the report page of a source
type Fetcher interface {
	FetchDocument(ctx context.Context, spec entities.SourceSpec) (string, error)
}

// Status is the outcome of one source in a run
type Status string

const (
	StatusWritten      Status = "written"
	StatusFetchFailed  Status = "fetch_failed"
	StatusSkippedEmpty Status = "skipped_empty"
	StatusWriteFailed  Status = "write_failed"
)

// SourceResult reports what a run did for one source
type SourceResult struct {
	SourceID string
	Status   Status
	Rows     int // records written, 0 unless Status is written
	Rejected map[records.Reason]int
	Err      error
}

// RunReport summarises a run over every registered source
type RunReport struct {
	Results  []SourceResult
	Duration time.Duration
}

// Written returns the number of sources whose snapshot was replaced
func (r RunReport) Written() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusWritten {
			n++
		}
	}
	return n
}

// Options tune the pipeline
type Options struct {
	Retention  time.Duration
	Location   *time.Location
	WriteEmpty bool // write a header-only snapshot when a source yields no rows
}

// FeedUseCase runs fetch, parse, normalize, merge and write for each source
type FeedUseCase struct {
	registry *config.Registry
	fetcher  Fetcher
	repo     repository.SnapshotRepository
	logger   *zap.SugaredLogger
	metrics  *metrics.Collector
	opts     Options
	now      func() time.Time
}

// NewFeedUseCase creates a new feed use case. A nil collector disables metrics.
func NewFeedUseCase(registry *config.Registry, fetcher Fetcher, repo repository.SnapshotRepository, opts Options, logger *zap.SugaredLogger, collector *metrics.Collector) *FeedUseCase {
	if opts.Retention <= 0 {
		opts.Retention = records.DefaultRetention
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &FeedUseCase{
		registry: registry,
		fetcher:  fetcher,
		repo:     repo,
		logger:   log.OrNop(logger),
		metrics:  collector,
		opts:     opts,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock used for the retention cutoff
func (uc *FeedUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// RefreshAll processes every registered source in order. A failing source never
// stops the others.
func (uc *FeedUseCase) RefreshAll(ctx context.Context) RunReport {
	start := time.Now()
	uc.logger.Infof("Starting refresh of %d sources", uc.registry.Len())

	report := RunReport{}
	for _, spec := range uc.registry.Sources() {
		if ctx.Err() != nil {
			uc.logger.Warnf("Refresh cancelled before %s: %v", spec.ID, ctx.Err())
			report.Results = append(report.Results, SourceResult{SourceID: spec.ID, Status: StatusFetchFailed, Err: ctx.Err()})
			continue
		}
		report.Results = append(report.Results, uc.RefreshSource(ctx, spec))
	}

	report.Duration = time.Since(start)
	if uc.metrics != nil {
		uc.metrics.ObserveRun(report.Duration)
	}
	uc.logger.Infof("Refresh finished: %d of %d snapshots written in %s", report.Written(), len(report.Results), report.Duration.Round(time.Millisecond))
	return report
}

// RefreshSource runs the pipeline for a single source
func (uc *FeedUseCase) RefreshSource(ctx context.Context, spec entities.SourceSpec) SourceResult {
	result := SourceResult{SourceID: spec.ID}

	doc, err := uc.fetcher.FetchDocument(ctx, spec)
	if err != nil {
		uc.logger.Warnf("Skipping %s: %v", spec.ID, err)
		result.Status = StatusFetchFailed
		result.Err = err
		if uc.opts.WriteEmpty {
			if werr := uc.repo.SaveDataset(spec, entities.Dataset{SourceID: spec.ID}); werr != nil {
				uc.logger.Errorf("Failed to write empty snapshot for %s: %v", spec.ID, werr)
				result.Err = errors.Join(err, werr)
			}
		}
		return result
	}

	ds, validated, rejected := uc.BuildDataset(spec, doc)
	result.Rejected = rejected

	// rows that validated but fell outside the window still replace the snapshot
	if validated == 0 && !uc.opts.WriteEmpty {
		uc.logger.Warnf("No valid rows found for %s, keeping previous snapshot", spec.ID)
		result.Status = StatusSkippedEmpty
		return result
	}

	if err := uc.repo.SaveDataset(spec, ds); err != nil {
		uc.logger.Errorf("Failed to save snapshot for %s: %v", spec.ID, err)
		result.Status = StatusWriteFailed
		result.Err = err
		return result
	}

	result.Status = StatusWritten
	result.Rows = ds.Len()
	if uc.metrics != nil {
		uc.metrics.RecordSnapshot(spec.ID, ds.Len(), uc.now())
	}
	return result
}

// BuildDataset parses a report page into the dataset for spec. It also returns
// the number of rows that passed validation, before the retention window is
// applied, and the rejections by reason.
func (uc *FeedUseCase) BuildDataset(spec entities.SourceSpec, doc string) (entities.Dataset, int, map[records.Reason]int) {
	var valid []entities.NormalizedRecord
	rejected := make(map[records.Reason]int)
	candidates := 0

	for row := range integration.ParseRows(doc) {
		candidates++
		res := records.Normalize(row, spec.MinFields, uc.opts.Location)
		if !res.Valid() {
			rejected[res.Reason]++
			uc.logger.Debugf("Warning: Skipping %s row %q: %s", spec.ID, row, res.Reason)
			if uc.metrics != nil {
				uc.metrics.RecordRejectedRow(spec.ID, string(res.Reason))
			}
			continue
		}
		valid = append(valid, res.Record)
	}

	ds := records.Merge(spec.ID, valid, uc.now().In(uc.opts.Location), uc.opts.Retention)
	uc.logger.Infof("%s: parsed %d rows, kept %d records, rejected %d", spec.ID, candidates, ds.Len(), candidates-len(valid))
	return ds, len(valid), rejected
}
