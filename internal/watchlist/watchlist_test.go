package watchlist

import (
	"path/filepath"
	"testing"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

func coffeeKey() trade.SeriesKey {
	return trade.SeriesKey{
		Feature:    "commodity_wise_all_countries",
		TradeType:  trade.TradeExport,
		EntityCode: "09011112",
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	wl, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(wl.List()) != 0 {
		t.Errorf("expected empty watchlist, got %d entries", len(wl.List()))
	}
}

func TestAddSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	wl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ds, err := wl.Add(coffeeKey(), "arabica bulk")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ds.UID == "" {
		t.Error("expected a generated uid")
	}
	if err := wl.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.List()
	if len(got) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(got))
	}
	if got[0].UID != ds.UID || got[0].Note != "arabica bulk" {
		t.Errorf("round trip lost fields: %+v", got[0])
	}
	if got[0].Key() != coffeeKey() {
		t.Errorf("key = %+v", got[0].Key())
	}
	if got[0].AddedAt.IsZero() {
		t.Error("added_at must survive the round trip")
	}
	if !reloaded.Contains(coffeeKey()) {
		t.Error("Contains should find the reloaded series")
	}
}

func TestAddRejectsDuplicateTriple(t *testing.T) {
	wl, _ := Load(filepath.Join(t.TempDir(), FileName))

	if _, err := wl.Add(coffeeKey(), ""); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	_, err := wl.Add(coffeeKey(), "different note")
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for duplicate triple, got %v", err)
	}
}

func TestAddRejectsInvalidKey(t *testing.T) {
	wl, _ := Load(filepath.Join(t.TempDir(), FileName))

	_, err := wl.Add(trade.SeriesKey{Feature: "x", TradeType: "sideways", EntityCode: "1"}, "")
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestRemoveByUIDAndCode(t *testing.T) {
	wl, _ := Load(filepath.Join(t.TempDir(), FileName))

	ds, _ := wl.Add(coffeeKey(), "")
	other := coffeeKey()
	other.EntityCode = "09011113"
	wl.Add(other, "")

	if err := wl.Remove(ds.UID); err != nil {
		t.Fatalf("Remove by uid: %v", err)
	}
	if err := wl.Remove("09011113"); err != nil {
		t.Fatalf("Remove by code: %v", err)
	}
	if len(wl.List()) != 0 {
		t.Errorf("expected empty list, got %d", len(wl.List()))
	}

	if err := wl.Remove("nope"); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for unknown ref, got %v", err)
	}
}

func TestRemoveAmbiguousCode(t *testing.T) {
	wl, _ := Load(filepath.Join(t.TempDir(), FileName))

	wl.Add(coffeeKey(), "")
	imported := coffeeKey()
	imported.TradeType = trade.TradeImport
	wl.Add(imported, "")

	err := wl.Remove("09011112")
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for ambiguous code, got %v", err)
	}
	if len(wl.List()) != 2 {
		t.Error("ambiguous remove must not delete anything")
	}
}
