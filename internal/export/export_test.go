package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/checksum"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

func exportKey() trade.SeriesKey {
	return trade.SeriesKey{
		Feature:    "commodity_wise_all_countries",
		TradeType:  trade.TradeExport,
		EntityCode: "09011112",
	}
}

func seedPeriod(t *testing.T, s store.Store, period string, usd float64) {
	t.Helper()

	id := trade.Identity{SeriesKey: exportKey(), Period: period}
	snap := &trade.Snapshot{
		Identity:  id,
		Commodity: trade.Commodity{Code: id.EntityCode, Description: "Coffee, Arabica", Unit: "Ton"},
		Partners: map[string]trade.PartnerRecord{
			"GERMANY": {USD: trade.ValueAxis{Curr: trade.Num(usd)}},
		},
	}
	entry := &store.VersionEntry{
		Period:    period,
		Timestamp: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Checksum:  checksum.Sum(snap),
		Snapshot:  snap,
		Diff:      diff.Compare(nil, snap),
	}
	if err := s.AppendOrReplace(context.Background(), id, entry); err != nil {
		t.Fatalf("seed %s: %v", period, err)
	}
}

func TestWriteSeriesPlainJSON(t *testing.T) {
	mem := store.NewMemory()
	w := NewWriter(mem, logging.Discard())
	dir := t.TempDir()

	seedPeriod(t, mem, "2023-24", 100)
	seedPeriod(t, mem, "2024-25", 150)

	path, err := w.WriteSeries(context.Background(), exportKey(), dir, false)
	if err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	if filepath.Base(path) != "commodity_wise_all_countries_export_09011112.json" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Count != 2 || len(doc.Entries) != 2 {
		t.Fatalf("count = %d, entries = %d, want 2", doc.Count, len(doc.Entries))
	}
	if doc.Entries[0].Period != "2023-24" || doc.Entries[1].Period != "2024-25" {
		t.Errorf("entries out of order: %s, %s", doc.Entries[0].Period, doc.Entries[1].Period)
	}
	if doc.Series != exportKey() {
		t.Errorf("series = %+v", doc.Series)
	}
	if doc.GeneratedAt == "" {
		t.Error("generated_at missing")
	}
	v := doc.Entries[1].Snapshot.Partners["GERMANY"].USD.Curr
	if v == nil || *v != 150 {
		t.Errorf("snapshot usd_curr = %v, want 150", v)
	}
	if !doc.Entries[0].Diff.IsBaseline {
		t.Error("first entry diff should survive export")
	}
}

func TestWriteSeriesCompressed(t *testing.T) {
	mem := store.NewMemory()
	w := NewWriter(mem, logging.Discard())
	dir := t.TempDir()

	seedPeriod(t, mem, "2024-25", 150)

	path, err := w.WriteSeries(context.Background(), exportKey(), dir, true)
	if err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	if !strings.HasSuffix(path, ".json.zst") {
		t.Errorf("expected .json.zst suffix, got %s", path)
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Count != 1 {
		t.Errorf("count = %d, want 1", doc.Count)
	}
}

func TestWriteSeriesEmptySeries(t *testing.T) {
	w := NewWriter(store.NewMemory(), logging.Discard())

	_, err := w.WriteSeries(context.Background(), exportKey(), t.TempDir(), false)
	if !errors.HasCode(err, errors.NoBaseline) {
		t.Errorf("expected NO_BASELINE for an unrecorded series, got %v", err)
	}
}

func TestFileNameSanitizes(t *testing.T) {
	key := trade.SeriesKey{Feature: "country wise/all", TradeType: trade.TradeImport, EntityCode: "USA"}
	if got := FileName(key, false); got != "country_wise_all_import_USA.json" {
		t.Errorf("FileName = %s", got)
	}
}
