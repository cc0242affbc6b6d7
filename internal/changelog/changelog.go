// Package changelog answers read-only history questions against the version
// store: per-period change summaries for a series and cross-period
// comparisons between stored snapshots.
package changelog

import (
	"context"
	"fmt"
	"time"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Entry summarizes one stored recording of a dataset slice.
type Entry struct {
	Period         string          `json:"period" yaml:"period"`
	Timestamp      string          `json:"timestamp" yaml:"timestamp"`
	Checksum       string          `json:"checksum" yaml:"checksum"`
	QualitySummary string          `json:"quality_summary" yaml:"quality_summary"`
	HasChanges     bool            `json:"has_changes" yaml:"has_changes"`
	Drift          diff.DriftLevel `json:"drift" yaml:"drift"`
	TotalChanges   int             `json:"total_changes" yaml:"total_changes"`
	PercentChange  float64         `json:"percent_change" yaml:"percent_change"`
}

// Comparison is a cross-period diff between two stored snapshots of the same
// series. The per-ingest diff compares recordings of a single period; this
// compares neighbouring periods.
type Comparison struct {
	Series       string       `json:"series" yaml:"series"`
	BasePeriod   string       `json:"base_period" yaml:"base_period"`
	TargetPeriod string       `json:"target_period" yaml:"target_period"`
	Report       *diff.Report `json:"report" yaml:"report"`
}

// Reporter reads history from a version store. It never writes.
type Reporter struct {
	store  store.Store
	logger *logging.Logger
}

// NewReporter creates a reporter over the given store.
func NewReporter(s store.Store, logger *logging.Logger) *Reporter {
	return &Reporter{store: s, logger: logger}
}

// ListHistory returns one entry per stored period of the series, ordered
// ascending by period. Unknown series yield an empty slice, not an error.
func (r *Reporter) ListHistory(ctx context.Context, key trade.SeriesKey) ([]Entry, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.New(errors.MalformedSnapshot, "invalid series key", err)
	}

	stored, err := r.store.History(ctx, key)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(stored))
	for _, ve := range stored {
		entry := Entry{
			Period:         ve.Period,
			Timestamp:      ve.Timestamp.UTC().Format(time.RFC3339),
			Checksum:       ve.Checksum,
			QualitySummary: ve.Quality.Summary(),
		}
		if ve.Diff != nil {
			entry.HasChanges = ve.Diff.HasChanges()
			entry.Drift = ve.Diff.DriftLevel
			entry.TotalChanges = ve.Diff.TotalChanges
			entry.PercentChange = ve.Diff.PercentChange
		}
		entries = append(entries, entry)
	}

	r.logger.Debug("Listed series history", map[string]interface{}{
		"series":  key.String(),
		"periods": len(entries),
	})
	return entries, nil
}

// Compare diffs the stored snapshot at id.Period against the stored snapshot
// at the greatest earlier period of the same series. Both sides must already
// be recorded; a missing side is a NO_BASELINE error.
func (r *Reporter) Compare(ctx context.Context, id trade.Identity) (*Comparison, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.New(errors.MalformedSnapshot, "invalid identity", err)
	}

	history, err := r.store.History(ctx, id.SeriesKey)
	if err != nil {
		return nil, err
	}

	// History is ascending, so the last earlier period seen is the greatest.
	var base, target *store.VersionEntry
	for _, ve := range history {
		switch {
		case ve.Period == id.Period:
			target = ve
		case ve.Period < id.Period:
			base = ve
		}
	}
	if target == nil {
		return nil, errors.New(errors.NoBaseline,
			fmt.Sprintf("no stored snapshot for %s", id.String()), nil)
	}
	if base == nil {
		return nil, errors.New(errors.NoBaseline,
			fmt.Sprintf("series %s has no period before %s", id.SeriesKey.String(), id.Period), nil)
	}

	report := diff.Compare(base.Snapshot, target.Snapshot)
	r.logger.Debug("Compared stored periods", map[string]interface{}{
		"series": id.SeriesKey.String(),
		"base":   base.Period,
		"target": target.Period,
		"drift":  string(report.DriftLevel),
	})

	return &Comparison{
		Series:       id.SeriesKey.String(),
		BasePeriod:   base.Period,
		TargetPeriod: target.Period,
		Report:       report,
	}, nil
}
