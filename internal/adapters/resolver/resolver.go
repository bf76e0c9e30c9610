// Package resolver decides which tier of the fallback chain supplies the
// working dataset for a run: remote fetch, refreshed cache or stale cache.
//
// The policy is an explicit state machine rather than nested branching so
// every terminal outcome (refreshed, stale, unavailable) is independently
// observable and testable.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/haebin/sujil/internal/adapters/store"
	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/internal/domain/validate"
	"github.com/haebin/sujil/pkg/logger"
	"github.com/haebin/sujil/pkg/metrics"
)

// State names the resolver's position in the fallback chain.
type State string

// Resolution states. Refreshed, stale and unavailable are terminal.
const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateValidating  State = "validating"
	StateRefreshed   State = "refreshed"
	StateFailed      State = "failed"
	StateFallback    State = "fallback"
	StateStale       State = "stale"
	StateUnavailable State = "unavailable"
)

// Fetcher abstracts the remote data provider for a single run.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Measurement, error)
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock replaces the time source used for provenance timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// Resolver runs the three-tier source resolution.
type Resolver struct {
	fetcher Fetcher
	cache   store.Store
	log     logger.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
}

// New creates a Resolver over a fetcher and a cache store.
func New(fetcher Fetcher, cache store.Store, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		cache:   cache,
		log:     logger.Get(),
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the state reached by the most recent resolution.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Resolve produces the working dataset for one run.
//
// A fetch or validation failure is recovered locally by falling back to
// the cache. The two unrecoverable outcomes are ErrNoDataAvailable (no
// remote data and no cache) and store.ErrCorruptCache (a cache that fails
// re-validation has no further fallback).
func (r *Resolver) Resolve(ctx context.Context) (*model.Dataset, error) {
	r.setState(StateFetching)
	fetchStart := r.now()
	raw, err := r.fetcher.Fetch(ctx)
	metrics.RecordFetchDuration(r.now().Sub(fetchStart).Seconds())
	if err != nil {
		r.log.Warn(ctx, "remote fetch failed, falling back to cache", logger.Error(err))
		metrics.RecordFetchFailure()
		r.setState(StateFailed)
		return r.fallback(ctx)
	}

	r.setState(StateValidating)
	valid, rep, err := validate.Records(raw)
	if err != nil {
		r.log.Warn(ctx, "remote payload failed validation, falling back to cache",
			logger.Int("input", rep.Input), logger.Int("dropped", rep.Dropped), logger.Error(err))
		metrics.RecordValidationFailure()
		r.setState(StateFailed)
		return r.fallback(ctx)
	}
	if rep.Dropped > 0 || rep.Deduped > 0 {
		r.log.Info(ctx, "remote payload filtered",
			logger.Int("input", rep.Input), logger.Int("valid", rep.Valid),
			logger.Int("dropped", rep.Dropped), logger.Int("deduped", rep.Deduped))
	}
	metrics.RecordRecordsDropped(rep.Dropped)

	ds := &model.Dataset{
		Measurements: valid,
		Source:       model.SourceRemote,
		RetrievedAt:  r.now(),
	}

	// A failed cache refresh does not invalidate the run: the remote data
	// in hand is still the freshest available.
	if err := r.cache.Save(ctx, ds); err != nil {
		r.log.Warn(ctx, "cache refresh failed, serving remote data anyway", logger.Error(err))
	} else {
		metrics.RecordCacheRefresh()
		metrics.UpdateCacheRecords(ds.RecordCount())
	}

	r.setState(StateRefreshed)
	metrics.RecordResolution(string(StateRefreshed))
	return ds, nil
}

func (r *Resolver) fallback(ctx context.Context) (*model.Dataset, error) {
	r.setState(StateFallback)
	ds, err := r.cache.Load(ctx)
	if err != nil {
		r.setState(StateUnavailable)
		metrics.RecordResolution(string(StateUnavailable))
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: remote unreachable and no cache", ErrNoDataAvailable)
		}
		return nil, err
	}

	r.setState(StateStale)
	metrics.RecordResolution(string(StateStale))
	r.log.Info(ctx, "serving cached dataset",
		logger.String("source", string(ds.Source)),
		logger.Int("records", ds.RecordCount()))
	return ds, nil
}
