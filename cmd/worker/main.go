package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/earthwork/internal/adapters/nats"
	"github.com/samirrijal/earthwork/internal/adapters/valkey"
	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/ports"
	"github.com/samirrijal/earthwork/internal/core/usecases"
	"github.com/samirrijal/earthwork/internal/pkg/config"
	"github.com/samirrijal/earthwork/internal/pkg/logging"
	"github.com/samirrijal/earthwork/internal/pkg/telemetry"
)

// The worker answers calculation jobs sent on NATS. Workers share a queue
// group, so running more of them spreads the load.
func main() {
	cfg, err := config.Load("earthwork-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdownTracer()
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, valkey.WithPrefix("v1:"))
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	svc := usecases.NewEarthworkService(cfg.Engine, cache, pub)

	sub, err := natsadapter.NewSubscriber(pub.Conn(), time.Duration(cfg.Server.RequestTimeout)*time.Second)
	if err != nil {
		log.Fatalf("subscriber: %v", err)
	}
	defer sub.Close()

	if err := sub.ServeCalculations(ctx, svc); err != nil {
		log.Fatalf("serve: %v", err)
	}
	if err := sub.SubscribeCalculations(ctx, func(ctx context.Context, ev *domain.CalculationEvent) error {
		slog.Debug("calculation event", "id", ev.ID, "status", ev.Status, "method", ev.Method, "duration_ms", ev.DurationMS)
		return nil
	}); err != nil {
		slog.Warn("event audit subscription failed", "error", err)
	}

	slog.Info("worker started", "subject", natsadapter.SubjectJobs, "queue", natsadapter.QueueWorkers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("worker stopping", "signal", sig.String())
}
