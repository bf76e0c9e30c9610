package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haebin/sujil/internal/adapters/http/api"
	"github.com/haebin/sujil/internal/adapters/provider"
	"github.com/haebin/sujil/internal/adapters/resolver"
	"github.com/haebin/sujil/internal/adapters/store"
	service "github.com/haebin/sujil/internal/app"
	"github.com/haebin/sujil/internal/config"
	"github.com/haebin/sujil/internal/domain/model"
	"github.com/haebin/sujil/internal/domain/scoring"
	"github.com/haebin/sujil/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// monthlyFetcher adapts the provider client to the resolver's Fetcher:
// each run asks for the current year and month of measurements.
type monthlyFetcher struct {
	client   *provider.Client
	stations []string
}

func (f *monthlyFetcher) Fetch(ctx context.Context) ([]model.Measurement, error) {
	now := time.Now()
	return f.client.Fetch(ctx, provider.Query{
		StationIDs: f.stations,
		Year:       now.Year(),
		Month:      now.Month(),
	})
}

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client := provider.NewClient(cfg.APIBaseURL, cfg.APIServiceKey,
		provider.WithTimeout(cfg.FetchTimeout()),
		provider.WithPageSize(cfg.PageSize),
	)
	cache := store.NewCSVStore(cfg.CachePath, store.WithSnapshotDir(cfg.SnapshotDir))
	res := resolver.New(&monthlyFetcher{client: client, stations: cfg.StationList}, cache,
		resolver.WithLogger(log.Named("resolver")),
	)
	calc := scoring.NewWeightedCalculator(
		scoring.WithWeights(cfg.TpWeight, cfg.TnWeight),
		scoring.WithThresholds(cfg.BucketThresholds[0], cfg.BucketThresholds[1], cfg.BucketThresholds[2]),
	)
	svc := service.New(res, calc,
		service.WithLogger(log.Named("pipeline")),
		service.WithRunInterval(cfg.RunInterval()),
	)

	// Status surface for downstream renderers: health, metrics, snapshot.
	mux := http.NewServeMux()
	api.NewServer(svc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting status server", logger.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("status server failed: " + err.Error() + "\n")
		}
	}()

	exitCode := 0
	if cfg.RunInterval() > 0 {
		if err := svc.Start(ctx); err != nil {
			log.Error(ctx, "failed to start schedule", logger.Error(err))
			exitCode = 1
		} else {
			<-ctx.Done()
			svc.Stop()
		}
	} else {
		// Run-once mode: a single pipeline invocation, then exit.
		if _, err := svc.RunOnce(ctx); err != nil {
			log.Error(ctx, "pipeline run failed", logger.Error(err))
			exitCode = 1
		}
	}

	log.Info(ctx, "shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "status server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "stopped")

	if exitCode != 0 {
		logger.Sync() //nolint:errcheck // exiting anyway
		os.Exit(exitCode)
	}
}
