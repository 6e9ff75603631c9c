package main

import (
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/earthwork/internal/core/usecases"
	"github.com/samirrijal/earthwork/internal/pkg/config"
	"github.com/samirrijal/earthwork/internal/pkg/logging"
	"github.com/samirrijal/earthwork/internal/workflows"
)

func main() {
	cfg, err := config.Load("earthwork-batch")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.BatchEarthworkWorkflow)
	w.RegisterActivity(&workflows.EarthworkActivities{
		Engine: usecases.NewEarthworkService(cfg.Engine, nil, nil),
	})

	slog.Info("batch worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
