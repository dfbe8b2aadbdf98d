// Package pipeline runs one inventory collection: collect every requested
// category, assemble a snapshot, write it to a JSON file and upsert it into
// the store. A run always ends in a single Outcome value; the orchestrator
// never exits the process.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/models"
	"github.com/Guliveer/sysinv/internal/snapshot"
	"github.com/Guliveer/sysinv/internal/store"
)

// Collector gathers one fact per requested category, in order.
type Collector interface {
	CollectAll(ctx context.Context, categories []models.Category) []models.HostFact
}

// Writer persists a snapshot to a file and returns its path.
type Writer interface {
	Write(snap models.Snapshot, name string) (string, error)
}

// Store is the scoped persistence backend.
type Store interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Upsert(ctx context.Context, snap models.Snapshot) (models.PersistedRecord, error)
}

// Options configures a run.
type Options struct {
	Hostname   string
	Categories []models.Category
	// FileName is the snapshot file name; empty selects the default name.
	FileName string

	// MaxRetries is the number of extra persist attempts after a failure.
	MaxRetries    int
	RetryInterval time.Duration
}

// Orchestrator sequences Collector, Assembler, Writer and Store.
type Orchestrator struct {
	collector Collector
	assembler *snapshot.Assembler
	writer    Writer
	store     Store
	opts      Options
	logger    *zap.Logger
	metrics   *Metrics
	newID     func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records every run in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator.
func New(c Collector, w Writer, s Store, opts Options, logger *zap.Logger, options ...Option) *Orchestrator {
	o := &Orchestrator{
		collector: c,
		assembler: snapshot.NewAssembler(nil),
		writer:    w,
		store:     s,
		opts:      opts,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// run tracks the state of a single Run call.
type run struct {
	outcome Outcome
	logger  *zap.Logger
}

func (r *run) enter(s Stage) {
	r.outcome.Stage = s
	r.outcome.States = append(r.outcome.States, s)
	r.logger.Debug("Entering stage", zap.String("stage", string(s)))
}

func (r *run) fail(err error) Outcome {
	r.outcome.Err = err
	r.logger.Error("Run failed",
		zap.String("stage", string(r.outcome.Stage)),
		zap.Error(err))
	return r.outcome
}

// Run executes one collection. Per-category failures are recorded in the
// snapshot; only assembly or persistence failures fail the run.
func (o *Orchestrator) Run(ctx context.Context) Outcome {
	start := time.Now()
	id := o.newID()
	r := &run{
		outcome: Outcome{RunID: id},
		logger:  o.logger.With(zap.String("run_id", id)),
	}
	r.enter(StageIdle)

	outcome := o.run(ctx, r)
	o.metrics.observe(outcome, time.Since(start))
	if outcome.Success() {
		r.logger.Info("Run succeeded",
			zap.String("hostname", outcome.Record.Snapshot.Hostname),
			zap.Uint("record_id", outcome.Record.ID),
			zap.String("path", outcome.Path),
			zap.Duration("elapsed", time.Since(start)))
	}
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, r *run) Outcome {
	r.enter(StageCollecting)
	facts := o.collector.CollectAll(ctx, o.opts.Categories)
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}
	for _, f := range facts {
		if f.Status.Code != models.StatusOK {
			r.logger.Info("Category not collected",
				zap.String("category", string(f.Category)),
				zap.String("status", f.Status.String()))
		}
	}

	r.enter(StageAssembling)
	snap, err := o.assembler.Assemble(o.opts.Hostname, o.opts.Categories, facts)
	if err != nil {
		return r.fail(err)
	}
	r.outcome.Snapshot = snap

	r.enter(StagePersisting)
	path, err := o.writer.Write(snap, o.opts.FileName)
	if err != nil {
		return r.fail(err)
	}
	r.outcome.Path = path

	rec, err := o.persist(ctx, r.logger, snap)
	if err != nil {
		return r.fail(err)
	}
	r.outcome.Record = rec

	r.enter(StageDone)
	return r.outcome
}

// persist connects, upserts and disconnects, retrying the whole sequence on
// connection failures and timeouts.
func (o *Orchestrator) persist(ctx context.Context, logger *zap.Logger, snap models.Snapshot) (models.PersistedRecord, error) {
	b := backoff.NewExponentialBackOff()
	if o.opts.RetryInterval > 0 {
		b.InitialInterval = o.opts.RetryInterval
	}

	attempts := 0
	return backoff.Retry(ctx, func() (models.PersistedRecord, error) {
		attempts++
		rec, err := o.persistOnce(ctx, logger, snap)
		if err != nil && !retryable(err) {
			return rec, backoff.Permanent(err)
		}
		return rec, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(o.opts.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			o.metrics.retried()
			logger.Warn("Persist failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
}

func (o *Orchestrator) persistOnce(ctx context.Context, logger *zap.Logger, snap models.Snapshot) (rec models.PersistedRecord, err error) {
	if err := o.store.Connect(ctx); err != nil {
		return rec, err
	}
	defer func() {
		if derr := o.store.Disconnect(); derr != nil {
			logger.Warn("Failed to disconnect from store", zap.Error(derr))
		}
	}()
	return o.store.Upsert(ctx, snap)
}

// retryable reports whether a persist failure may succeed on another
// attempt. Conflicts are already retried inside the store.
func retryable(err error) bool {
	var perr *store.PersistenceError
	if !errors.As(err, &perr) {
		return true
	}
	return perr.Kind == store.KindConnection || perr.Kind == store.KindTimeout
}
