package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/app"
	"github.com/mjwells2002/foa-dswifi/internal/config"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("dshost starting...")

	cfg := config.Load()
	if cfg.Debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		log.Printf("Warning: tracer init failed: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			shutdownTracer(shutdownCtx)
		}()
	}

	if cfg.MockMode {
		log.Println("Running in MOCK MODE. No real frames will be transmitted.")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("Fatal error encountered", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}
