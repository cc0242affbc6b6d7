package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

func queueIdentity(period string) trade.Identity {
	return trade.NewIdentity("commodity_wise_all_countries", trade.TradeExport, "09011112", period)
}

func TestJobEncoding(t *testing.T) {
	job := Job{
		ID:         "5f0c9a6e-ffaa-4f6c-9f43-1c1c7b9f2a10",
		Identity:   queueIdentity("2024-25"),
		Payload:    "/data/incoming/coffee.json",
		EnqueuedAt: "2026-05-01T09:00:00Z",
	}

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Job
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != job {
		t.Errorf("round trip changed the job: %+v", decoded)
	}
	if !decoded.Identity.Equal(queueIdentity("2024-25")) {
		t.Errorf("identity = %+v", decoded.Identity)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url", "q", logging.Discard())
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}

	_, err = Connect(context.Background(), "", "q", logging.Discard())
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for empty url, got %v", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, "redis://127.0.0.1:1", "q", logging.Discard())
	if !errors.HasCode(err, errors.QueueUnavailable) {
		t.Errorf("expected QUEUE_UNAVAILABLE, got %v", err)
	}
}

// Round-trip through a live Redis, gated the same way as the Postgres store:
//
//	TRADESTAT_TEST_REDIS_URL=redis://127.0.0.1:6379/15 go test ./internal/queue/
func TestQueueEndToEnd(t *testing.T) {
	url := os.Getenv("TRADESTAT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TRADESTAT_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	q, err := Connect(ctx, url, "tradestat:test:"+t.Name(), logging.Discard())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		q.client.Del(ctx, q.name)
		q.Close()
	}()

	// Write two payload files the worker will pick up.
	dir := t.TempDir()
	for i, period := range []string{"2023-24", "2024-25"} {
		id := queueIdentity(period)
		raw := trade.RawRecord{
			Feature:    id.Feature,
			TradeType:  id.TradeType,
			EntityCode: id.EntityCode,
			Period:     id.Period,
			Commodity:  trade.Commodity{Code: id.EntityCode},
			Partners:   []trade.RawPartner{{Name: "germany"}},
		}
		data, err := json.Marshal(raw)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		path := filepath.Join(dir, period+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("write payload: %v", err)
		}
		if _, err := q.Enqueue(ctx, id, path); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	if n, err := q.Len(ctx); err != nil || n != 2 {
		t.Fatalf("Len = %d, %v, want 2", n, err)
	}

	mem := store.NewMemory()
	w := NewWorker(q, ingest.NewService(mem, nil, logging.Discard()), logging.Discard())
	w.poll = 200 * time.Millisecond

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(runCtx) }()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		e1, _ := mem.GetLatest(ctx, queueIdentity("2023-24"))
		e2, _ := mem.GetLatest(ctx, queueIdentity("2024-25"))
		if e1 != nil && e2 != nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("worker must exit cleanly on cancel, got %v", err)
	}

	for _, period := range []string{"2023-24", "2024-25"} {
		entry, err := mem.GetLatest(ctx, queueIdentity(period))
		if err != nil || entry == nil {
			t.Errorf("period %s not recorded: %v", period, err)
		}
	}
}
