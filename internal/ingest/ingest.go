// Package ingest runs the recording pipeline for a single dataset slice:
// normalize the raw payload, diff it against the stored baseline, and persist
// the resulting version entry.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/im7mortal/kmutex"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/checksum"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/features"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/normalize"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Result is what one recording produced. Entry and Report are always set
// once the pipeline reaches the diff stage, even when persistence fails.
type Result struct {
	Identity  trade.Identity      `json:"identity"`
	Entry     *store.VersionEntry `json:"-"`
	Report    *diff.Report        `json:"report"`
	Persisted bool                `json:"persisted"`
}

// Service coordinates normalize, diff, and store for incoming extractions.
// Recordings of the same identity are serialized through a keyed lock so
// concurrent workers cannot interleave read-diff-write cycles.
type Service struct {
	store   store.Store
	catalog *features.Catalog
	locks   *kmutex.Kmutex
	logger  *logging.Logger
}

// NewService creates an ingest service over the given store. A nil catalog
// accepts every feature.
func NewService(s store.Store, catalog *features.Catalog, logger *logging.Logger) *Service {
	return &Service{
		store:   s,
		catalog: catalog,
		locks:   kmutex.New(),
		logger:  logger,
	}
}

// Run records one raw extraction under the given identity.
//
// The identity is gated by the feature catalog, then the raw payload is
// normalized and checked against the declared identity before any store
// access. The diff baseline is the latest stored
// recording of the same identity, nil on first contact. A store write
// failure still returns the computed Result so callers can surface the
// change report; Persisted stays false and the error carries
// STORE_UNAVAILABLE.
func (s *Service) Run(ctx context.Context, id trade.Identity, raw *trade.RawRecord) (*Result, error) {
	if err := s.catalog.Validate(id); err != nil {
		return nil, err
	}

	snap, err := normalize.Snapshot(raw)
	if err != nil {
		return nil, err
	}
	if !snap.Identity.Equal(id) {
		return nil, errors.New(errors.IdentityMismatch,
			fmt.Sprintf("payload addresses %s, expected %s", snap.Identity.String(), id.String()), nil).
			WithDetails(map[string]string{
				"declared": id.String(),
				"payload":  snap.Identity.String(),
			})
	}

	lockKey := id.String()
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	var baseline *trade.Snapshot
	prev, err := s.store.GetLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		baseline = prev.Snapshot
	}

	report := diff.Compare(baseline, snap)
	entry := &store.VersionEntry{
		Period:    id.Period,
		Timestamp: time.Now().UTC(),
		Checksum:  checksum.Sum(snap),
		Snapshot:  snap,
		Diff:      report,
		Quality:   raw.Quality,
	}

	result := &Result{Identity: id, Entry: entry, Report: report}
	if err := s.store.AppendOrReplace(ctx, id, entry); err != nil {
		s.logger.Error("Recording computed but not persisted", map[string]interface{}{
			"identity": id.String(),
			"error":    err.Error(),
		})
		return result, err
	}
	result.Persisted = true

	s.logger.Info("Recorded dataset slice", map[string]interface{}{
		"identity":      id.String(),
		"baseline":      report.IsBaseline,
		"drift":         string(report.DriftLevel),
		"totalChanges":  report.TotalChanges,
		"percentChange": report.PercentChange,
	})
	return result, nil
}

// ReadRawFile loads one raw extraction payload from a JSON file.
func ReadRawFile(path string) (*trade.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.MalformedSnapshot,
			fmt.Sprintf("failed to read %s", path), err)
	}
	var raw trade.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.MalformedSnapshot,
			fmt.Sprintf("failed to decode %s", path), err)
	}
	return &raw, nil
}
