package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/queue"
)

var workerQueueName string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume ingest jobs from the Redis queue",
	Long: `Run a long-lived worker that consumes ingest jobs from the Redis queue.

Each job names a snapshot file on shared storage; the worker records it the
same way "tradestat ingest" would. Run several workers to spread load; jobs
for the same dataset slice should be serialized by the producer, otherwise
racing workers degrade to last-write-wins.

Examples:
  tradestat worker
  tradestat worker --queue tradestat:backfill`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerQueueName, "queue", "", "Redis list to consume (default: config queue.name)")

	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(newContext())
	defer cancel()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := a.ingestService(st)
	if err != nil {
		return err
	}

	queueName := workerQueueName
	if queueName == "" {
		queueName = a.Config.Queue.Name
	}
	q, err := queue.Connect(ctx, a.Config.Queue.URL, queueName, a.Logger)
	if err != nil {
		return err
	}
	defer q.Close()

	worker := queue.NewWorker(q, svc, a.Logger)

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	workerErr := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting queue worker", map[string]interface{}{
			"queue": q.Name(),
		})
		fmt.Printf("tradestat worker consuming %s\n", q.Name())
		fmt.Println("Press Ctrl+C to stop")
		workerErr <- worker.Run(ctx)
	}()

	select {
	case err := <-workerErr:
		if err != nil {
			a.Logger.Error("Worker error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		a.Logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		// Run returns nil once it observes the cancelled context.
		cancel()
		if err := <-workerErr; err != nil {
			return err
		}
		a.Logger.Info("Worker stopped gracefully", nil)
	}

	return nil
}
