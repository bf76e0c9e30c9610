// Package service composes source resolution and scoring into pipeline
// runs, and optionally repeats them on a fixed schedule.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/internal/domain/scoring"
	"github.com/haebin/sujil/pkg/logger"
	"github.com/haebin/sujil/pkg/metrics"
)

// Resolver supplies the working dataset for one run.
type Resolver interface {
	Resolve(ctx context.Context) (*model.Dataset, error)
}

// Result is the outcome of one pipeline run, handed to downstream
// renderers as-is.
type Result struct {
	RunID       string
	Source      model.SourceKind
	RetrievedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time

	// Scored holds every scoreable measurement, ordered by score
	// descending so consumers can rank stations directly.
	Scored []model.ScoredMeasurement

	// Unscored keeps measurements missing Tp or Tn for the station
	// inventory; they carry no risk classification.
	Unscored []model.Measurement
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRunInterval enables the recurring schedule. Non-positive values
// leave the service in run-once mode.
func WithRunInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.runInterval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service is the pipeline runner.
type Service struct {
	resolver Resolver
	calc     scoring.Calculator
	log      logger.Logger
	now      func() time.Time

	runInterval time.Duration

	// runMu enforces the single-run discipline: a scheduled tick that
	// fires while a run is in flight is skipped, never queued.
	runMu sync.Mutex

	mu      sync.RWMutex
	latest  *Result
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a Service over a resolver and a score calculator.
func New(resolver Resolver, calc scoring.Calculator, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		calc:     calc,
		log:      logger.Get(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce executes one pipeline run: resolve the dataset, score every
// scoreable measurement and publish the result. A failed run returns an
// error and leaves the previously published result untouched.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

// run executes a pipeline run. Caller holds runMu.
func (s *Service) run(ctx context.Context) (*Result, error) {
	startedAt := s.now()

	ds, err := s.resolver.Resolve(ctx)
	if err != nil {
		metrics.RecordRunFailure()
		s.log.Error(ctx, "run failed, previous result kept", logger.Error(err))
		return nil, err
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Source:      ds.Source,
		RetrievedAt: ds.RetrievedAt,
		StartedAt:   startedAt,
	}

	for _, m := range ds.Measurements {
		score, ok := s.calc.Score(m.Tp, m.Tn)
		if !ok {
			res.Unscored = append(res.Unscored, m)
			continue
		}
		bucket, err := s.calc.Classify(score)
		if err != nil {
			// Out-of-contract score is a programming error, not a
			// condition to fall back from.
			return nil, err
		}
		res.Scored = append(res.Scored, model.ScoredMeasurement{
			Measurement: m,
			Score:       score,
			Bucket:      bucket,
		})
	}

	sort.SliceStable(res.Scored, func(i, j int) bool {
		if res.Scored[i].Score != res.Scored[j].Score {
			return res.Scored[i].Score > res.Scored[j].Score
		}
		return res.Scored[i].StationID < res.Scored[j].StationID
	})

	res.FinishedAt = s.now()

	metrics.RecordRun(res.FinishedAt.Sub(startedAt).Seconds())
	metrics.UpdateScoredRecords(len(res.Scored))
	metrics.UpdateUnscoredRecords(len(res.Unscored))

	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()

	s.log.Info(ctx, "run complete",
		logger.String("run_id", res.RunID),
		logger.String("source", string(res.Source)),
		logger.Int("scored", len(res.Scored)),
		logger.Int("unscored", len(res.Unscored)),
		logger.Duration("took", res.FinishedAt.Sub(startedAt)))
	return res, nil
}

// Latest returns the most recent successful run result, or nil when no
// run has succeeded yet.
func (s *Service) Latest() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Start begins the recurring schedule: one run immediately, then one per
// interval until ctx is canceled or Stop is called. It fails when the
// service was built without a run interval or is already started.
func (s *Service) Start(ctx context.Context) error {
	if s.runInterval <= 0 {
		return ErrNoSchedule
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	s.tick(ctx)

	ticker := time.NewTicker(s.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick attempts one scheduled run, skipping it when the previous run is
// still in flight. Per-invocation failures are logged and counted but do
// not stop the schedule.
func (s *Service) tick(ctx context.Context) {
	if !s.runMu.TryLock() {
		s.log.Warn(ctx, "previous run still in flight, skipping tick")
		return
	}
	defer s.runMu.Unlock()

	if _, err := s.run(ctx); err != nil {
		s.log.Warn(ctx, "scheduled run failed", logger.Error(err))
	}
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	<-s.done
}
