package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/jobs"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/queue"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/watchlist"
)

var (
	batchDir           string
	batchWorkers       int
	batchWatchlistOnly bool
	batchEnqueue       bool
	batchFormat        string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Record every snapshot file in a directory",
	Long: `Record every *.json snapshot file in a directory.

By default the files are ingested locally through a worker pool; recordings
of the same dataset slice are serialized, different slices run in parallel.
With --enqueue the files are pushed onto the Redis queue instead, to be
consumed by "tradestat worker" processes.

Examples:
  tradestat batch --dir ./snapshots
  tradestat batch --dir ./snapshots --workers 8 --watchlist-only
  tradestat batch --dir ./snapshots --enqueue`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "Directory of snapshot JSON files (required)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Worker pool size (default: config batch.workers)")
	batchCmd.Flags().BoolVar(&batchWatchlistOnly, "watchlist-only", false, "Skip files whose series is not watchlisted")
	batchCmd.Flags().BoolVar(&batchEnqueue, "enqueue", false, "Push files onto the Redis queue instead of ingesting locally")
	batchCmd.Flags().StringVar(&batchFormat, "format", "human", "Output format (human, json, yaml)")
	_ = batchCmd.MarkFlagRequired("dir")

	rootCmd.AddCommand(batchCmd)
}

// BatchResponseCLI contains a local batch run summary for CLI output
type BatchResponseCLI struct {
	Dir       string        `json:"dir" yaml:"dir"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Jobs      []BatchJobCLI `json:"jobs" yaml:"jobs"`
}

type BatchJobCLI struct {
	ID       string `json:"id" yaml:"id"`
	File     string `json:"file" yaml:"file"`
	Identity string `json:"identity,omitempty" yaml:"identity,omitempty"`
	Status   string `json:"status" yaml:"status"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// EnqueueResponseCLI contains the queue hand-off summary for CLI output
type EnqueueResponseCLI struct {
	Queue    string           `json:"queue" yaml:"queue"`
	Enqueued int              `json:"enqueued" yaml:"enqueued"`
	Depth    int64            `json:"depth" yaml:"depth"`
	Jobs     []EnqueuedJobCLI `json:"jobs" yaml:"jobs"`
}

type EnqueuedJobCLI struct {
	ID       string `json:"id" yaml:"id"`
	Identity string `json:"identity" yaml:"identity"`
	File     string `json:"file" yaml:"file"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()

	a, err := loadApp()
	if err != nil {
		return err
	}

	if batchEnqueue {
		return runBatchEnqueue(a, start)
	}
	return runBatchLocal(a, start)
}

func runBatchLocal(a *app, start time.Time) error {
	ctx := newContext()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := a.ingestService(st)
	if err != nil {
		return err
	}

	var only *watchlist.Watchlist
	if batchWatchlistOnly {
		only, err = a.loadWatchlist()
		if err != nil {
			return err
		}
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = a.Config.Batch.Workers
	}

	runner := jobs.NewRunner(svc, workers, a.Config.Batch.QueueSize, a.Logger)
	summary, err := runner.Run(ctx, batchDir, only)
	if err != nil {
		return err
	}

	resp := &BatchResponseCLI{
		Dir:       batchDir,
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Jobs:      make([]BatchJobCLI, 0, len(summary.Jobs)),
	}
	for _, job := range summary.Jobs {
		resp.Jobs = append(resp.Jobs, BatchJobCLI{
			ID:       job.ID,
			File:     job.Path,
			Identity: job.Identity,
			Status:   string(job.Status),
			Error:    job.Error,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(batchFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Batch completed", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"duration":  time.Since(start).Milliseconds(),
	})
	return nil
}

// runBatchEnqueue reads each file's embedded identity and hands the file off
// to the Redis queue. The payload itself travels by path, not by value, so
// workers must share the filesystem.
func runBatchEnqueue(a *app, start time.Time) error {
	ctx := newContext()

	files, err := jobs.ListSnapshotFiles(batchDir)
	if err != nil {
		return err
	}

	q, err := queue.Connect(ctx, a.Config.Queue.URL, a.Config.Queue.Name, a.Logger)
	if err != nil {
		return err
	}
	defer q.Close()

	resp := &EnqueueResponseCLI{Queue: q.Name()}
	for _, file := range files {
		raw, err := ingest.ReadRawFile(file)
		if err != nil {
			return err
		}
		job, err := q.Enqueue(ctx, raw.Identity(), file)
		if err != nil {
			return err
		}
		resp.Jobs = append(resp.Jobs, EnqueuedJobCLI{
			ID:       job.ID,
			Identity: job.Identity.String(),
			File:     file,
		})
	}
	resp.Enqueued = len(resp.Jobs)

	if depth, err := q.Len(ctx); err == nil {
		resp.Depth = depth
	}

	output, err := FormatResponse(resp, OutputFormat(batchFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Enqueue completed", map[string]interface{}{
		"enqueued": resp.Enqueued,
		"queue":    resp.Queue,
		"duration": time.Since(start).Milliseconds(),
	})
	return nil
}
