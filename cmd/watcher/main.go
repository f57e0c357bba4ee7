package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketlens/watchstream/internal/api"
	"github.com/marketlens/watchstream/internal/auth"
	"github.com/marketlens/watchstream/internal/cache"
	"github.com/marketlens/watchstream/internal/config"
	"github.com/marketlens/watchstream/internal/database"
	"github.com/marketlens/watchstream/internal/marketcal"
	"github.com/marketlens/watchstream/internal/recorder"
	"github.com/marketlens/watchstream/internal/stream"
	"github.com/marketlens/watchstream/internal/version"
	"github.com/marketlens/watchstream/internal/watch"
)

func main() {
	configPath := flag.String("config", "configs/watcher.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration first; logging setup depends on it
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting watcher",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	creds := credentialsFromConfig(cfg.API)

	restClient := api.NewClient(
		cfg.API.BaseURL,
		creds,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Optional tick recorder
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(cfg.Recorder, pool, logger)
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			rec.Stop(stopCtx)
		}()
	}

	// Optional view cache
	var viewCache *cache.Cache
	if cfg.Cache.Enabled {
		viewCache, err = cache.Dial(ctx, cfg.Cache)
		if err != nil {
			// Cache is a degradation, not a dependency
			logger.Warn("cache unavailable, continuing without it", "error", err)
		} else {
			defer viewCache.Close()
			logger.Info("cache connected", "addr", cfg.Cache.Addr)
		}
	}

	wcfg := watch.Config{
		StreamURL: cfg.Stream.URL,
		Stream: stream.Config{
			BaseInterval:     cfg.Stream.BaseInterval,
			MaxAttempts:      cfg.Stream.MaxAttempts,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			PingInterval:     cfg.Stream.PingInterval,
			PingTimeout:      cfg.Stream.PingTimeout,
			BufferSize:       cfg.Stream.BufferSize,
		},
	}
	if rec != nil {
		wcfg.Sink = rec
	}

	watcher := watch.New(wcfg, restClient, creds, marketcal.NewResolver(), logger)
	defer watcher.Close()

	// Persist views on every update notification
	go consumeNotifications(ctx, watcher, viewCache, logger)

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, watcher, rec, viewCache),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Open the first configured watchlist
	target := cfg.Watchlists.Targets[0]

	if viewCache != nil {
		if views, err := viewCache.GetViews(ctx, target); err == nil {
			logger.Info("recovered cached view", "target", target, "holdings", len(views))
		} else if err != cache.ErrMiss {
			logger.Warn("cached view unavailable", "error", err)
		}
	}

	if err := watcher.Open(ctx, target); err != nil {
		logger.Error("failed to open watchlist", "target", target, "error", err)
		os.Exit(1)
	}

	// Periodic snapshot refresh keeps membership current
	refreshTicker := time.NewTicker(cfg.Watchlists.RefreshInterval)
	defer refreshTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-refreshTicker.C:
				if err := watcher.Refresh(ctx); err != nil {
					logger.Warn("periodic refresh failed", "error", err)
				}
			}
		}
	}()

	logger.Info("watcher running",
		"instance_id", cfg.Instance.ID,
		"target", target,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("watcher stopped")
}

// newLogger builds the root logger from config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// credentialsFromConfig prefers an env-sourced token over a literal one.
func credentialsFromConfig(cfg config.APIConfig) auth.Credentials {
	if cfg.TokenEnv != "" {
		return &auth.EnvToken{Var: cfg.TokenEnv}
	}
	if cfg.Token != "" {
		return auth.StaticToken(cfg.Token)
	}
	return nil
}

// consumeNotifications drains the watcher feed, mirroring each view update
// into the cache when one is configured.
func consumeNotifications(ctx context.Context, w *watch.Watcher, viewCache *cache.Cache, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.Notifications():
			switch n.Kind {
			case watch.NotifyStateChange:
				logger.Info("connection state changed", "state", n.State, "error", n.Err)
			case watch.NotifyViewUpdate:
				if viewCache == nil {
					continue
				}
				cacheCtx, cacheCancel := context.WithTimeout(ctx, 2*time.Second)
				if err := viewCache.SetViews(cacheCtx, w.Target(), w.Views()); err != nil {
					logger.Warn("failed to cache views", "error", err)
				}
				cacheCancel()
			case watch.NotifySnapshotError:
				logger.Warn("snapshot failed", "error", n.Err)
			case watch.NotifyDecodeError:
				logger.Warn("bad frame on stream", "error", n.Err)
			}
		}
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, w *watch.Watcher, rec *recorder.Recorder, viewCache *cache.Cache) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		state := w.State()
		health.Components["stream"] = map[string]any{
			"state":        state.String(),
			"target":       w.Target(),
			"holdings":     len(w.Views()),
			"last_updated": w.LastUpdated(),
		}
		switch state {
		case stream.StateFailed:
			health.Status = "unhealthy"
		case stream.StateReconnecting, stream.StateConnecting:
			health.Status = "degraded"
		}

		if rec != nil {
			stats := rec.Stats()
			health.Components["recorder"] = map[string]any{
				"inserts": stats.Inserts,
				"errors":  stats.Errors,
				"dropped": stats.Dropped,
			}
		}

		if viewCache != nil {
			if err := viewCache.Ping(ctx); err != nil {
				health.Components["cache"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["cache"] = "connected"
			}
		}

		rw.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			rw.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(rw).Encode(health)
	})

	return mux
}
