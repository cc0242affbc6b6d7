package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
)

// defaultPoll bounds how long a worker blocks per BRPOP before re-checking
// its context.
const defaultPoll = 5 * time.Second

// Worker consumes queued jobs and runs them through the ingest service.
type Worker struct {
	queue   *Queue
	service *ingest.Service
	logger  *logging.Logger
	poll    time.Duration
}

// NewWorker creates a worker over the given queue and ingest service.
func NewWorker(q *Queue, svc *ingest.Service, logger *logging.Logger) *Worker {
	return &Worker{
		queue:   q,
		service: svc,
		logger:  logger,
		poll:    defaultPoll,
	}
}

// Run consumes jobs until the context is cancelled, which is a clean exit,
// not an error. Job failures are logged and do not stop the loop; only a
// broken Redis connection does.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Queue worker started", map[string]interface{}{
		"queue": w.queue.name,
		"poll":  w.poll.String(),
	})

	for {
		res, err := w.queue.client.BRPop(ctx, w.poll, w.queue.name).Result()
		if err != nil {
			if stderrors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.logger.Info("Queue worker stopped", map[string]interface{}{
					"queue": w.queue.name,
				})
				return nil
			}
			return errors.New(errors.QueueUnavailable, "queue read failed", err)
		}
		// BRPOP returns [key, value].
		if len(res) == 2 {
			w.handle(ctx, []byte(res[1]))
		}
	}
}

func (w *Worker) handle(ctx context.Context, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		w.logger.Error("Dropped undecodable job", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	raw, err := ingest.ReadRawFile(job.Payload)
	if err != nil {
		w.logger.Error("Job payload unreadable", map[string]interface{}{
			"jobId":   job.ID,
			"payload": job.Payload,
			"error":   err.Error(),
		})
		return
	}

	result, err := w.service.Run(ctx, job.Identity, raw)
	if err != nil {
		w.logger.Error("Job failed", map[string]interface{}{
			"jobId":    job.ID,
			"identity": job.Identity.String(),
			"error":    err.Error(),
		})
		return
	}

	w.logger.Info("Job completed", map[string]interface{}{
		"jobId":    job.ID,
		"identity": job.Identity.String(),
		"drift":    string(result.Report.DriftLevel),
		"baseline": result.Report.IsBaseline,
	})
}
