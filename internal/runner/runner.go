// Package runner sequences one incremental ETL cycle per table: read the
// watermark, extract qualifying rows, transform, load, and advance the
// watermark only after the load has fully succeeded.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/golake/internal/extract"
	"github.com/dbsmedya/golake/internal/lake"
	"github.com/dbsmedya/golake/internal/logger"
	"github.com/dbsmedya/golake/internal/predicate"
	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/transform"
	"github.com/dbsmedya/golake/internal/watermark"
)

// Status is the outcome of one run.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	// StatusNoOp means zero qualifying records were found. The watermark is
	// intentionally not advanced so a transient empty window cannot mark
	// later-arriving same-instant data as processed.
	StatusNoOp Status = "NO_OP"
)

// RunResult contains statistics and status of one incremental cycle.
type RunResult struct {
	Table            string
	Status           Status
	RecordsProcessed int
	FirstRun         bool
	WatermarkBefore  watermark.Watermark
	WatermarkAfter   watermark.Watermark
	StartedAt        time.Time
	Duration         time.Duration
	Err              error
}

// Clock abstracts time for deterministic tests.
type Clock func() time.Time

// Runner coordinates incremental cycles. All collaborators are injected so
// tests can substitute doubles.
type Runner struct {
	store       watermark.Store
	extractor   extract.Extractor
	loader      lake.Loader
	dialect     sqlutil.Dialect
	descriptors map[string]predicate.Descriptor
	transforms  map[string]transform.Transformer
	logger      *logger.Logger
	now         Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the runner's time source.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.now = c }
}

// New creates a Runner.
func New(
	store watermark.Store,
	extractor extract.Extractor,
	loader lake.Loader,
	dialect sqlutil.Dialect,
	descriptors map[string]predicate.Descriptor,
	transforms map[string]transform.Transformer,
	log *logger.Logger,
	opts ...Option,
) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("watermark store is nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	r := &Runner{
		store:       store,
		extractor:   extractor,
		loader:      loader,
		dialect:     dialect,
		descriptors: descriptors,
		transforms:  transforms,
		logger:      log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes one incremental cycle for one table. The returned result is
// always non-nil; its Err field carries the failure when Status is FAILED.
//
// The watermark advances to the run's own start instant, captured before the
// extract query runs, so rows arriving while the run is in flight are
// re-selected next time. It never advances on failure or on an empty window.
func (r *Runner) Run(ctx context.Context, table string) (*RunResult, error) {
	desc, ok := r.descriptors[table]
	if !ok {
		err := fmt.Errorf("table %q not configured", table)
		return &RunResult{Table: table, Status: StatusFailed, Err: err}, err
	}

	startedAt := r.now().UTC()
	runID := fmt.Sprintf("%s_%s", table, startedAt.Format("20060102_150405"))
	log := r.logger.WithTable(table).WithRun(runID)

	result := &RunResult{
		Table:     table,
		StartedAt: startedAt,
	}
	finish := func() *RunResult {
		result.Duration = r.now().UTC().Sub(startedAt)
		return result
	}

	// WATERMARK_READ: a read failure is recovered by falling back to the
	// default lookback window, same as an absent watermark.
	prev, err := r.store.Read(ctx, table)
	if err != nil && !errors.Is(err, watermark.ErrNotFound) {
		log.Warnf("Watermark read failed, falling back to lookback window: %v", err)
		prev = watermark.Watermark{}
	}
	result.WatermarkBefore = prev
	result.WatermarkAfter = prev

	pred, err := predicate.Build(r.dialect, desc, prev, startedAt)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return finish(), err
	}
	result.FirstRun = pred.FirstRun

	if pred.FirstRun {
		log.Infof("No stored watermark, scanning from %s", pred.Watermark)
	} else {
		log.Infof("Selecting rows changed after %s", prev)
	}

	// EXTRACT
	records, err := r.extractor.Extract(ctx, table, pred)
	if err != nil {
		result.Status = StatusFailed
		result.Err = &ExtractError{Table: table, Err: err}
		return finish(), result.Err
	}

	// Zero qualifying records: done, watermark untouched.
	if len(records) == 0 {
		log.Infof("No new records since %s", pred.Watermark)
		result.Status = StatusNoOp
		return finish(), nil
	}

	log.Infof("Processing %d incremental records", len(records))

	// TRANSFORM
	if tf, ok := r.transforms[table]; ok && tf != nil {
		records, err = tf.Transform(records, runID, startedAt)
		if err != nil {
			result.Status = StatusFailed
			result.Err = fmt.Errorf("transform failed for %s: %w", table, err)
			return finish(), result.Err
		}
	}

	// LOAD
	written, err := r.loader.Load(ctx, table, runID, records)
	if err != nil {
		result.Status = StatusFailed
		result.Err = &LoadError{Table: table, Err: err}
		return finish(), result.Err
	}
	result.RecordsProcessed = written

	// WATERMARK_ADVANCE: only after a fully successful load. A write failure
	// fails the run loudly so the operator reruns; duplicates are acceptable,
	// lost progress markers are not.
	next := watermark.New(startedAt)
	if next.Before(prev) {
		// The stored watermark is ahead of this run's clock. Never regress it.
		log.Warnf("Stored watermark %s is ahead of run start %s, not advancing", prev, next)
		log.Infof("Run complete: %d records, watermark unchanged at %s", written, prev)
		result.Status = StatusSucceeded
		return finish(), nil
	}
	if err := r.store.Write(ctx, table, next); err != nil {
		result.Status = StatusFailed
		result.Err = &WatermarkWriteError{Table: table, Err: err}
		return finish(), result.Err
	}
	result.WatermarkAfter = next

	log.Infof("Run complete: %d records, watermark advanced to %s", written, next)
	result.Status = StatusSucceeded
	return finish(), nil
}

// RunAll executes sequential cycles for the given tables, collecting one
// result per table. Processing continues past individual failures; the error
// aggregates them.
func (r *Runner) RunAll(ctx context.Context, tables []string) ([]*RunResult, error) {
	var results []*RunResult
	var failed []string

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := r.Run(ctx, table)
		results = append(results, result)
		if err != nil {
			failed = append(failed, table)
		}
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("runs failed for %d table(s): %v", len(failed), failed)
	}
	return results, nil
}
