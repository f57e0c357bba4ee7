// streamtest subscribes to one watchlist and prints state changes and view
// updates to the console.
// Usage: go run ./cmd/streamtest --config configs/watcher.local.yaml --target wl-main
//
// The API token is read from the env var named in api.token_env, or from
// api.token in the config file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/api"
	"github.com/marketlens/watchstream/internal/auth"
	"github.com/marketlens/watchstream/internal/config"
	"github.com/marketlens/watchstream/internal/marketcal"
	"github.com/marketlens/watchstream/internal/stream"
	"github.com/marketlens/watchstream/internal/watch"
)

func main() {
	configPath := flag.String("config", "configs/watcher.example.yaml", "path to config file")
	target := flag.String("target", "", "watchlist to stream (defaults to the first configured one)")
	verbose := flag.Bool("verbose", false, "print full view JSON on every update")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *target == "" {
		*target = cfg.Watchlists.Targets[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	var creds auth.Credentials
	switch {
	case cfg.API.TokenEnv != "":
		creds = &auth.EnvToken{Var: cfg.API.TokenEnv}
	case cfg.API.Token != "":
		creds = auth.StaticToken(cfg.API.Token)
	}

	restClient := api.NewClient(
		cfg.API.BaseURL,
		creds,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
	)

	watcher := watch.New(watch.Config{
		StreamURL: cfg.Stream.URL,
		Stream: stream.Config{
			BaseInterval:     cfg.Stream.BaseInterval,
			MaxAttempts:      cfg.Stream.MaxAttempts,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			PingInterval:     cfg.Stream.PingInterval,
			PingTimeout:      cfg.Stream.PingTimeout,
			BufferSize:       cfg.Stream.BufferSize,
		},
	}, restClient, creds, marketcal.NewResolver(), logger)
	defer watcher.Close()

	logger.Info("opening watchlist", "target", *target)
	if err := watcher.Open(ctx, *target); err != nil {
		logger.Error("failed to open watchlist", "error", err)
		os.Exit(1)
	}

	go printNotifications(ctx, watcher, *verbose)

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutdown complete")
}

func printNotifications(ctx context.Context, w *watch.Watcher, verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.Notifications():
			switch n.Kind {
			case watch.NotifyStateChange:
				if n.Err != nil {
					fmt.Printf("[STATE] %s error=%v\n", n.State, n.Err)
				} else {
					fmt.Printf("[STATE] %s\n", n.State)
				}

			case watch.NotifyViewUpdate:
				views := w.Views()
				if verbose {
					data, _ := json.MarshalIndent(views, "", "  ")
					fmt.Printf("[VIEW] %s\n", data)
					continue
				}
				fmt.Printf("[VIEW] %s holdings=%d updated=%s\n",
					w.Target(), len(views), w.LastUpdated().Format(time.RFC3339))
				for _, v := range views {
					fmt.Printf("  %-10s price=%s change=%s%% pl=%s\n",
						v.Ticker, decOrDash(v.Price), decOrDash(v.ChangePercent), decOrDash(v.UnrealizedPL))
				}

			case watch.NotifySnapshotError:
				fmt.Printf("[SNAPSHOT ERROR] %v\n", n.Err)

			case watch.NotifyDecodeError:
				fmt.Printf("[BAD FRAME] %v\n", n.Err)
			}
		}
	}
}

func decOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
