package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/hookrelay/internal/api"
	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/delivery"
	"github.com/gyaneshwarpardhi/hookrelay/internal/engine"
	"github.com/gyaneshwarpardhi/hookrelay/internal/ingest"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/notifications.yaml", "Path to notifications YAML config")
	natsURL := flag.String("nats-url", "", "NATS server URL; empty disables the NATS source")
	natsSubject := flag.String("nats-subject", "events.>", "NATS subject to consume events from")
	natsQueue := flag.String("nats-queue", "hookrelay", "NATS queue group (empty: every relay gets every event)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Compile rules ─────────────────────────────────────────────────────────
	rules, err := engine.BuildRules(cfg)
	if err != nil {
		slog.Error("invalid notification rules", "err", err)
		os.Exit(1)
	}
	slog.Info("rules compiled", "version", cfg.Version, "notifications", rules.Len())

	// ── Delivery ──────────────────────────────────────────────────────────────
	dc := cfg.Delivery
	deliverer := delivery.NewRetrying(
		delivery.NewWebhook(time.Duration(dc.TimeoutMs)*time.Millisecond),
		delivery.RetryConfig{
			MaxAttempts:    dc.MaxAttempts,
			InitialBackoff: time.Duration(dc.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(dc.MaxBackoffMs) * time.Millisecond,
		},
	)

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, rules, deliverer, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Engine and delivery tunables are fixed at startup; only rules reload.
	loader.OnChange(eng.Apply)
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── NATS source ───────────────────────────────────────────────────────────
	var src *ingest.NATSSource
	if *natsURL != "" {
		nc, err := ingest.Connect(*natsURL)
		if err != nil {
			slog.Error("nats unavailable", "err", err)
			os.Exit(1)
		}
		defer nc.Close()
		src = ingest.NewNATSSource(nc, *natsSubject, *natsQueue, eng)
		if err := src.Start(); err != nil {
			slog.Error("nats source failed", "err", err)
			os.Exit(1)
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.EventTimeoutMs)*time.Millisecond + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if src != nil {
		if err := src.Close(); err != nil {
			slog.Warn("nats drain failed", "err", err)
		}
	}
	eng.Shutdown() // drain queued events before cancelling in-flight deliveries
	cancel()
	slog.Info("goodbye")
}
