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

	"fastlob/internal/app"
	"fastlob/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	pprofAddr := flag.String("pprof", "localhost:6060", "pprof listen address, empty to disable")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	if *pprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Sequencer in its own goroutine (The Hotpath Loop).
	// It outlives ctx so the shutdown snapshot can still be served.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go bootstrap.Sequencer.Run(runCtx)
	slog.InfoContext(ctx, "✅ Sequencer (Hotpath) started")

	if bootstrap.Config.Engine.Demo {
		go bootstrap.RunDemo(ctx)
	}

	slog.InfoContext(ctx, "✨ fastlob fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bootstrap.PersistSnapshot(saveCtx); err != nil {
		slog.Error("Failed to persist book snapshot", slog.Any("error", err))
	}

	m := infra.GlobalMetrics.Snapshot()
	slog.Info("📊 Final metrics",
		slog.Uint64("events", m.EventsProcessed),
		slog.Uint64("rejects", m.RejectsTotal),
		slog.Int64("pool_size", m.PoolSize),
		slog.Int64("pool_live", m.PoolLive),
		slog.Int64("avg_latency_ns", m.AvgLatencyNs))
}
