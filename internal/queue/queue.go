// Package queue distributes ingest jobs across processes through a Redis
// list. A producer LPUSHes JSON jobs; workers BRPOP from the other end, so a
// single list behaves as a FIFO queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// DefaultQueueName is the Redis list used when none is configured.
const DefaultQueueName = "tradestat:ingest"

// Job is one queued ingest request. Payload is the path of the raw snapshot
// JSON on storage shared between producer and workers.
type Job struct {
	ID         string         `json:"id"`
	Identity   trade.Identity `json:"identity"`
	Payload    string         `json:"payload"`
	EnqueuedAt string         `json:"enqueued_at"`
}

// Queue is a Redis-backed ingest job queue.
type Queue struct {
	client *redis.Client
	name   string
	logger *logging.Logger
}

// Connect opens a Redis connection and verifies it with a ping.
func Connect(ctx context.Context, url, name string, logger *logging.Logger) (*Queue, error) {
	if url == "" {
		return nil, errors.New(errors.ConfigInvalid, "queue url is empty", nil)
	}
	if name == "" {
		name = DefaultQueueName
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("invalid queue url %q", url), err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.New(errors.QueueUnavailable, "redis ping failed", err)
	}

	return &Queue{client: client, name: name, logger: logger}, nil
}

// Enqueue pushes one job for the given identity and payload path.
func (q *Queue) Enqueue(ctx context.Context, id trade.Identity, payloadPath string) (*Job, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.New(errors.MalformedSnapshot, "invalid identity", err)
	}

	job := &Job{
		ID:         uuid.New().String(),
		Identity:   id,
		Payload:    payloadPath,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to encode job", err)
	}

	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		return nil, errors.New(errors.QueueUnavailable,
			fmt.Sprintf("failed to enqueue onto %s", q.name), err)
	}

	q.logger.Info("Enqueued ingest job", map[string]interface{}{
		"jobId":    job.ID,
		"identity": id.String(),
		"queue":    q.name,
	})
	return job, nil
}

// Name returns the Redis list this queue reads and writes.
func (q *Queue) Name() string {
	return q.name
}

// Len reports the number of waiting jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, errors.New(errors.QueueUnavailable, "failed to read queue length", err)
	}
	return n, nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
