package jobs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/watchlist"
)

func writeSnapshotFile(t *testing.T, dir, name string, id trade.Identity, usd float64) string {
	t.Helper()

	raw := trade.RawRecord{
		Feature:    id.Feature,
		TradeType:  id.TradeType,
		EntityCode: id.EntityCode,
		Period:     id.Period,
		Commodity:  trade.Commodity{Code: id.EntityCode, Description: "Coffee, Arabica"},
		Partners: []trade.RawPartner{
			{Name: "germany", USD: trade.RawAxis{Curr: trade.RawValue{Val: &usd}}},
		},
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func batchIdentity(code, period string) trade.Identity {
	return trade.NewIdentity("commodity_wise_all_countries", trade.TradeExport, code, period)
}

func TestRunIngestsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "a.json", batchIdentity("09011112", "2024-25"), 100)
	writeSnapshotFile(t, dir, "b.json", batchIdentity("09011113", "2024-25"), 50)
	// Non-json files are not batch input.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	mem := store.NewMemory()
	r := NewRunner(ingest.NewService(mem, nil, logging.Discard()), 2, 0, logging.Discard())

	summary, err := r.Run(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 2 || summary.Succeeded != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, job := range summary.Jobs {
		if job.ID == "" {
			t.Error("job must carry a generated id")
		}
		if job.Status != StatusSucceeded {
			t.Errorf("job %s status = %s", job.Path, job.Status)
		}
	}

	for _, code := range []string{"09011112", "09011113"} {
		entry, err := mem.GetLatest(context.Background(), batchIdentity(code, "2024-25"))
		if err != nil || entry == nil {
			t.Errorf("entity %s not recorded: %v", code, err)
		}
	}
}

func TestRunCountsFailures(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "good.json", batchIdentity("09011112", "2024-25"), 100)
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(ingest.NewService(store.NewMemory(), nil, logging.Discard()), 2, 0, logging.Discard())
	summary, err := r.Run(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, job := range summary.Jobs {
		if job.Status == StatusFailed && job.Error == "" {
			t.Error("failed job must carry its error")
		}
	}
}

func TestRunWatchlistFilter(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "tracked.json", batchIdentity("09011112", "2024-25"), 100)
	writeSnapshotFile(t, dir, "untracked.json", batchIdentity("09011113", "2024-25"), 50)

	wl, err := watchlist.Load(filepath.Join(t.TempDir(), watchlist.FileName))
	if err != nil {
		t.Fatalf("Load watchlist: %v", err)
	}
	if _, err := wl.Add(batchIdentity("09011112", "2024-25").SeriesKey, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	mem := store.NewMemory()
	r := NewRunner(ingest.NewService(mem, nil, logging.Discard()), 1, 0, logging.Discard())
	summary, err := r.Run(context.Background(), dir, wl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	if entry, _ := mem.GetLatest(context.Background(), batchIdentity("09011113", "2024-25")); entry != nil {
		t.Error("untracked series must not be recorded")
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	r := NewRunner(ingest.NewService(store.NewMemory(), nil, logging.Discard()), 1, 0, logging.Discard())

	summary, err := r.Run(context.Background(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunMissingDirectory(t *testing.T) {
	r := NewRunner(ingest.NewService(store.NewMemory(), nil, logging.Discard()), 1, 0, logging.Discard())

	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "absent"), nil)
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}
