package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmrzaf/sbgen/internal/api"
	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/config"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/runs"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/registry"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	profilesDir := flag.String("profiles-dir", cfg.ProfilesDir, "Profiles directory")
	targetsDir := flag.String("targets-dir", cfg.TargetsDir, "Targets directory")
	runsDB := flag.String("runs-db", cfg.RunsDBPath, "Runs database path (SQLite)")
	runsDSN := flag.String("runs-dsn", cfg.RunsDSN, "Runs database DSN (PostgreSQL, overrides -runs-db)")
	zonesPath := flag.String("zones", cfg.ZonesPath, "Parquet file the zone table is read from")
	bindAddr := flag.String("bind", cfg.APIAddr, "Bind address")
	metricsAddr := flag.String("metrics-bind", cfg.MetricsAddr, "Separate bind address for /metrics (default: served on -bind)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	workers := flag.Int("workers", cfg.NumWorkers, "Parts generated concurrently per table")
	flag.Parse()

	logger := logging.NewLogger(*logLevel).WithComponent("api_main")
	defer func() { _ = logger.Sync() }()

	var runRepo runs.Repository
	if *runsDSN != "" {
		runRepo = runs.NewPostgresRepository(*runsDSN)
	} else {
		runRepo = runs.NewSQLiteRepository(*runsDB)
	}
	if err := runRepo.Init(); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "init_run_repo"})
		os.Exit(1)
	}
	defer runRepo.Close()

	opts := app.Options{
		Workers:      *workers,
		RunTimeout:   cfg.RunTimeout,
		TextPoolSize: cfg.TextPoolSize,
	}
	if *zonesPath != "" {
		opts.Zones = generators.NewParquetZoneSource(*zonesPath)
	}
	m := metrics.New()
	runService := app.NewRunService(
		profiles.NewFileRepository(*profilesDir),
		targets.NewFileRepository(*targetsDir),
		runRepo,
		registry.DefaultTableRegistry(),
		m,
		logger,
		opts,
	)

	handler := api.NewHandler(runService)
	mux := http.NewServeMux()
	handler.Routes(mux)

	servers := []*http.Server{{
		Addr:              *bindAddr,
		Handler:           loggingMiddleware(logger.WithComponent("http"), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if *metricsAddr != "" && *metricsAddr != *bindAddr {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", m.Handler())
		servers = append(servers, &http.Server{
			Addr:              *metricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	} else {
		mux.Handle("GET /metrics", m.Handler())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Infow("startup.listening", map[string]any{"bind": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warnw("shutdown.failed", map[string]any{"bind": srv.Addr, "error": err.Error()})
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "listen"})
		os.Exit(1)
	}
	logger.Infow("shutdown.complete", nil)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(started).Milliseconds(),
			"remote":      r.RemoteAddr,
		}
		if sw.status >= 500 {
			logger.Errorw("request.completed", fields)
			return
		}
		if sw.status >= 400 {
			logger.Warnw("request.completed", fields)
			return
		}
		logger.Infow("request.completed", fields)
	})
}
