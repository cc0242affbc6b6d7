// Package jobs runs local batch ingestion: a worker pool that scans a
// directory of raw snapshot files and feeds each one through the ingest
// service. Per-identity ordering is guaranteed by the service's advisory
// lock, not by the pool.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/watchlist"
)

const (
	// DefaultWorkers is the pool size when none is configured.
	DefaultWorkers = 4
	// DefaultQueueSize is the job channel buffer when none is configured.
	DefaultQueueSize = 100
)

// JobStatus is the terminal state of one batch job.
type JobStatus string

const (
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusSkipped   JobStatus = "skipped"
)

// Job is one snapshot file scheduled for ingestion.
type Job struct {
	ID       string        `json:"id"`
	Path     string        `json:"path"`
	Identity string        `json:"identity,omitempty"`
	Status   JobStatus     `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

func (j *Job) markSucceeded(identity string, d time.Duration) {
	j.Identity = identity
	j.Status = StatusSucceeded
	j.Duration = d
}

func (j *Job) markFailed(err error, d time.Duration) {
	j.Status = StatusFailed
	j.Error = err.Error()
	j.Duration = d
}

func (j *Job) markSkipped(reason string) {
	j.Status = StatusSkipped
	j.Error = reason
}

// Summary aggregates one batch run.
type Summary struct {
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Jobs      []*Job `json:"jobs"`
}

// Runner is a fixed-size worker pool over the ingest service.
type Runner struct {
	service   *ingest.Service
	logger    *logging.Logger
	workers   int
	queueSize int
}

// NewRunner creates a batch runner. Non-positive worker counts and queue
// sizes fall back to the defaults.
func NewRunner(service *ingest.Service, workers, queueSize int, logger *logging.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Runner{
		service:   service,
		logger:    logger,
		workers:   workers,
		queueSize: queueSize,
	}
}

// Run ingests every *.json file under dir. With a non-nil watchlist, files
// whose series is not watchlisted are skipped. Job failures land in the
// summary rather than aborting the batch.
func (r *Runner) Run(ctx context.Context, dir string, only *watchlist.Watchlist) (*Summary, error) {
	files, err := ListSnapshotFiles(dir)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, &Job{ID: uuid.New().String(), Path: f})
	}

	r.logger.Info("Starting batch run", map[string]interface{}{
		"dir":     dir,
		"files":   len(jobs),
		"workers": r.workers,
	})

	queue := make(chan *Job, r.queueSize)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				r.process(ctx, job, only)
			}
		}()
	}
	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()

	summary := &Summary{Total: len(jobs), Jobs: jobs}
	for _, job := range jobs {
		switch job.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}

	r.logger.Info("Batch run finished", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	})
	return summary, nil
}

// process runs one job to a terminal status.
func (r *Runner) process(ctx context.Context, job *Job, only *watchlist.Watchlist) {
	if ctx.Err() != nil {
		job.markSkipped("batch cancelled")
		return
	}

	start := time.Now()
	raw, err := ingest.ReadRawFile(job.Path)
	if err != nil {
		job.markFailed(err, time.Since(start))
		r.logger.Error("Batch job failed", map[string]interface{}{
			"jobId": job.ID,
			"path":  job.Path,
			"error": err.Error(),
		})
		return
	}

	id := raw.Identity()
	if only != nil && !only.Contains(id.SeriesKey) {
		job.Identity = id.String()
		job.markSkipped("series not watchlisted")
		r.logger.Debug("Batch job skipped", map[string]interface{}{
			"jobId":    job.ID,
			"identity": id.String(),
		})
		return
	}

	result, err := r.service.Run(ctx, id, raw)
	if err != nil {
		job.markFailed(err, time.Since(start))
		r.logger.Error("Batch job failed", map[string]interface{}{
			"jobId":    job.ID,
			"path":     job.Path,
			"identity": id.String(),
			"error":    err.Error(),
		})
		return
	}

	job.markSucceeded(id.String(), time.Since(start))
	r.logger.Debug("Batch job completed", map[string]interface{}{
		"jobId":    job.ID,
		"identity": id.String(),
		"drift":    string(result.Report.DriftLevel),
		"duration": job.Duration.String(),
	})
}

// ListSnapshotFiles returns the sorted *.json files directly under dir. The
// queue enqueuer and the local batch runner share this scan.
func ListSnapshotFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("failed to read batch directory %s", dir), err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
