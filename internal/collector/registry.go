// Package collector provides a registry for managing fact collectors.
// Collectors are registered at startup; the orchestrator asks the registry
// for an ordered list of categories and always receives one fact per category.
package collector

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Guliveer/sysinv/internal/models"
	"github.com/Guliveer/sysinv/internal/platform"
)

// Options controls how the registry runs collectors.
type Options struct {
	// Timeout bounds a single category. Zero means no limit beyond the caller's context.
	Timeout time.Duration

	// Sequential disables concurrent collection across categories.
	Sequential bool
}

// Registry manages all registered collectors and orchestrates collection.
type Registry struct {
	collectors map[models.Category]Collector
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
}

// NewRegistry creates a new collector registry with the given logger.
func NewRegistry(logger *zap.Logger, opts Options) *Registry {
	return &Registry{
		collectors: make(map[models.Category]Collector),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// NewDefaultRegistry creates a registry with a collector for every category.
func NewDefaultRegistry(logger *zap.Logger, p platform.Platform, opts Options) *Registry {
	r := NewRegistry(logger, opts)
	r.Register(NewCPUCollector())
	r.Register(NewMemoryCollector())
	r.Register(NewStorageCollector(logger))
	r.Register(NewGPUCollector(p, logger))
	r.Register(NewNetworkCollector())
	r.Register(NewOSInfoCollector())
	return r
}

// Register adds a collector, replacing any previous one for the same category.
// Collectors that are not available on this platform are kept so that their
// category is still reported, as Unavailable.
func (r *Registry) Register(c Collector) {
	r.collectors[c.Category()] = c
	if c.IsAvailable() {
		r.logger.Debug("Registered collector", zap.String("category", string(c.Category())))
	} else {
		r.logger.Warn("Collector not available on this platform",
			zap.String("category", string(c.Category())))
	}
}

// Collect gathers a single category. It never fails: every problem is
// recorded in the returned fact's status.
func (r *Registry) Collect(ctx context.Context, category models.Category) (fact models.HostFact) {
	fact = models.HostFact{Category: category}
	defer func() {
		fact.CollectedAt = models.Timestamp(r.now())
		r.logFact(fact)
	}()

	c, ok := r.collectors[category]
	if !ok {
		fact.Status = models.PartialError("no collector registered")
		return fact
	}
	if !c.IsAvailable() {
		fact.Status = models.Unavailable("not supported on " + runtime.GOOS)
		return fact
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	values, err := r.run(ctx, c)
	switch {
	case err != nil && isUnavailable(err):
		fact.Status = models.Unavailable(err.Error())
	case err != nil:
		fact.Status = models.PartialError(err.Error())
	case values == nil:
		fact.Status = models.PartialError("collector returned no data")
	case values.Category() != category:
		fact.Status = models.PartialError(fmt.Sprintf("collector returned %s data", values.Category()))
	default:
		fact.Status = models.OK()
		fact.Values = values
	}
	return fact
}

// CollectAll gathers every requested category and returns the facts in the
// same order as categories. Failed categories never stop the others.
func (r *Registry) CollectAll(ctx context.Context, categories []models.Category) []models.HostFact {
	facts := make([]models.HostFact, len(categories))

	if r.opts.Sequential {
		for i, c := range categories {
			facts[i] = r.Collect(ctx, c)
		}
		return facts
	}

	var g errgroup.Group
	for i, c := range categories {
		g.Go(func() error {
			facts[i] = r.Collect(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return facts
}

type collectResult struct {
	values models.FactValues
	err    error
}

// run invokes the collector, converting panics into errors and giving up
// when ctx expires even if the collector ignores it.
func (r *Registry) run(ctx context.Context, c Collector) (models.FactValues, error) {
	done := make(chan collectResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- collectResult{err: fmt.Errorf("collector panicked: %v", rec)}
			}
		}()
		values, err := c.Collect(ctx)
		done <- collectResult{values: values, err: err}
	}()

	select {
	case res := <-done:
		return res.values, res.err
	case <-ctx.Done():
		if r.opts.Timeout > 0 && ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("timed out after %s", r.opts.Timeout)
		}
		return nil, ctx.Err()
	}
}

func (r *Registry) logFact(f models.HostFact) {
	fields := []zap.Field{
		zap.String("category", string(f.Category)),
		zap.String("status", string(f.Status.Code)),
	}
	switch f.Status.Code {
	case models.StatusPartialError:
		r.logger.Warn("Collection failed", append(fields, zap.String("error", f.Status.Message))...)
	case models.StatusUnavailable:
		r.logger.Info("Category unavailable", append(fields, zap.String("reason", f.Status.Message))...)
	default:
		r.logger.Debug("Collected category", fields...)
	}
}
