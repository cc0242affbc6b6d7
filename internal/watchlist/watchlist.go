// Package watchlist manages the TOML file of tracked dataset slices. The
// batch ingester can restrict a run to watchlisted series, and the CLI edits
// the list in place.
package watchlist

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// FileName is the watchlist file name under the data root.
const FileName = "watchlist.toml"

// Watchlist is the on-disk list of tracked slices.
type Watchlist struct {
	// UpdatedAt is when the list was last modified
	UpdatedAt time.Time `toml:"updated_at"`

	// Datasets are the tracked slices
	Datasets []Dataset `toml:"dataset"`

	path string
}

// Dataset is one tracked slice.
type Dataset struct {
	// UID is the immutable identifier assigned on Add
	UID string `toml:"uid"`

	// Feature is the dataset family, e.g. commodity_wise_all_countries
	Feature string `toml:"feature"`

	// TradeType is export or import
	TradeType string `toml:"trade_type"`

	// EntityCode identifies the commodity or country within the feature
	EntityCode string `toml:"entity_code"`

	// Note is an optional free-form annotation
	Note string `toml:"note,omitempty"`

	// AddedAt is when the slice was added
	AddedAt time.Time `toml:"added_at"`
}

// Key returns the dataset's series key.
func (d Dataset) Key() trade.SeriesKey {
	return trade.SeriesKey{Feature: d.Feature, TradeType: d.TradeType, EntityCode: d.EntityCode}
}

// Load reads the watchlist at path. A missing file yields an empty list
// bound to that path, so the first Add can create it.
func Load(path string) (*Watchlist, error) {
	wl := &Watchlist{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return wl, nil
	}
	if _, err := toml.DecodeFile(path, wl); err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return wl, nil
}

// Save writes the watchlist back to its path.
func (w *Watchlist) Save() error {
	if w.path == "" {
		return errors.New(errors.ConfigInvalid, "watchlist has no file path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return errors.New(errors.ConfigInvalid, "failed to create watchlist directory", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to create watchlist file", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(w); err != nil {
		return errors.New(errors.ConfigInvalid, "failed to encode watchlist", err)
	}
	return nil
}

// Add appends a new tracked slice. The feature/trade_type/entity_code triple
// must not already be present.
func (w *Watchlist) Add(key trade.SeriesKey, note string) (*Dataset, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid series key", err)
	}
	for _, d := range w.Datasets {
		if d.Key() == key {
			return nil, errors.New(errors.ConfigInvalid,
				fmt.Sprintf("series %s is already watchlisted (uid %s)", key.String(), d.UID), nil)
		}
	}

	ds := Dataset{
		UID:        uuid.New().String(),
		Feature:    key.Feature,
		TradeType:  key.TradeType,
		EntityCode: key.EntityCode,
		Note:       note,
		AddedAt:    time.Now().UTC(),
	}
	w.Datasets = append(w.Datasets, ds)
	w.UpdatedAt = time.Now().UTC()
	return &ds, nil
}

// Remove deletes a tracked slice by uid or by entity code. Entity-code
// removal requires the code to match exactly one entry.
func (w *Watchlist) Remove(ref string) error {
	idx := -1
	matches := 0
	for i, d := range w.Datasets {
		if d.UID == ref {
			idx = i
			matches = 1
			break
		}
		if d.EntityCode == ref {
			idx = i
			matches++
		}
	}
	if idx < 0 {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("no watchlisted dataset matches %q", ref), nil)
	}
	if matches > 1 {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("entity code %q matches %d datasets, remove by uid", ref, matches), nil)
	}

	w.Datasets = append(w.Datasets[:idx], w.Datasets[idx+1:]...)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns the tracked slices.
func (w *Watchlist) List() []Dataset {
	return w.Datasets
}

// Contains reports whether the series key is watchlisted.
func (w *Watchlist) Contains(key trade.SeriesKey) bool {
	for _, d := range w.Datasets {
		if d.Key() == key {
			return true
		}
	}
	return false
}
