// Package store persists per-identity version histories: one record per
// (feature, trade_type, entity_code, period), holding the canonical snapshot,
// its checksum, the diff against the previous recording, and pass-through
// quality metrics. Backends: SQLite (default), Postgres, in-memory.
package store

import (
	"context"
	"time"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// VersionEntry is one recorded version of an identity.
type VersionEntry struct {
	Period    string                `json:"period"`
	Timestamp time.Time             `json:"timestamp"`
	Checksum  string                `json:"checksum"`
	Snapshot  *trade.Snapshot       `json:"snapshot"`
	Diff      *diff.Report          `json:"diff"`
	Quality   *trade.QualityMetrics `json:"quality,omitempty"`
}

// Store is the version-store contract.
//
// AppendOrReplace is idempotent: when the incoming entry's checksum matches
// the stored entry for the same period, the stored entry is left untouched,
// so the stored diff stays computed against the entry that preceded the
// original write. Histories of different identities are independent; the
// caller owns single-writer-per-identity discipline (see ingest).
type Store interface {
	// GetLatest returns the stored entry for the identity's period, nil
	// when the identity has never been recorded.
	GetLatest(ctx context.Context, id trade.Identity) (*VersionEntry, error)

	// AppendOrReplace writes the entry for (identity, entry.Period),
	// replacing any previous recording of that period and never touching
	// other periods.
	AppendOrReplace(ctx context.Context, id trade.Identity, entry *VersionEntry) error

	// History returns every recorded period of a series, ascending.
	History(ctx context.Context, key trade.SeriesKey) ([]*VersionEntry, error)

	Close() error
}

// Open constructs the configured backend. path is the SQLite file path and
// dsn the Postgres connection string; each backend reads only its own.
func Open(ctx context.Context, backend, path, dsn string, logger *logging.Logger) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLite(path, logger)
	case BackendPostgres:
		return NewPostgres(ctx, dsn, logger)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, errors.New(errors.ConfigInvalid, "unknown store backend "+backend, nil)
	}
}
