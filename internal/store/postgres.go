package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// PostgresStore is the shared-database backend, for deployments where several
// hosts read the same histories.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS version_entries (
	feature     TEXT NOT NULL,
	trade_type  TEXT NOT NULL,
	entity_code TEXT NOT NULL,
	period      TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	checksum    TEXT NOT NULL,
	snapshot    BYTEA NOT NULL,
	diff        JSONB NOT NULL,
	quality     JSONB,
	PRIMARY KEY (feature, trade_type, entity_code, period)
);
CREATE INDEX IF NOT EXISTS idx_version_entries_series
	ON version_entries(feature, trade_type, entity_code);
`

// NewPostgres connects a pool and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string, logger *logging.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New(errors.ConfigInvalid, "postgres store dsn is empty", nil)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse postgres dsn", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.New(errors.StoreUnavailable, "postgres ping failed", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.New(errors.StoreUnavailable, "failed to ensure schema", err)
	}

	return &PostgresStore{pool: pool, logger: logger.Component("store")}, nil
}

// GetLatest returns the stored entry for the identity's period, nil when the
// identity has never been recorded.
func (p *PostgresStore) GetLatest(ctx context.Context, id trade.Identity) (*VersionEntry, error) {
	if p.pool == nil {
		return nil, errors.New(errors.StoreUnavailable, "postgres store not initialized", nil)
	}

	row := p.pool.QueryRow(ctx, `
		SELECT period, recorded_at, checksum, snapshot, diff, quality
		FROM version_entries
		WHERE feature = $1 AND trade_type = $2 AND entity_code = $3 AND period = $4
	`, id.Feature, id.TradeType, id.EntityCode, id.Period)

	entry, err := scanPostgresEntry(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to read version entry", err)
	}
	return entry, nil
}

// AppendOrReplace writes the entry for (identity, entry.Period). The upsert
// is guarded so a matching stored checksum leaves the row untouched.
func (p *PostgresStore) AppendOrReplace(ctx context.Context, id trade.Identity, entry *VersionEntry) error {
	if p.pool == nil {
		return errors.New(errors.StoreUnavailable, "postgres store not initialized", nil)
	}

	snapshotBlob, err := encodeSnapshot(entry.Snapshot)
	if err != nil {
		return errors.New(errors.StoreUnavailable, "failed to encode snapshot", err)
	}
	diffJSON, err := entry.Diff.ToJSON()
	if err != nil {
		return errors.New(errors.StoreUnavailable, "failed to encode diff", err)
	}
	qualityJSON, err := encodeQuality(entry.Quality)
	if err != nil {
		return errors.New(errors.StoreUnavailable, "failed to encode quality metrics", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO version_entries
			(feature, trade_type, entity_code, period, recorded_at, checksum, snapshot, diff, quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (feature, trade_type, entity_code, period) DO UPDATE
			SET recorded_at = EXCLUDED.recorded_at,
			    checksum    = EXCLUDED.checksum,
			    snapshot    = EXCLUDED.snapshot,
			    diff        = EXCLUDED.diff,
			    quality     = EXCLUDED.quality
			WHERE version_entries.checksum <> EXCLUDED.checksum
	`, id.Feature, id.TradeType, id.EntityCode, entry.Period,
		entry.Timestamp.UTC(), entry.Checksum, snapshotBlob, diffJSON, qualityJSON)
	if err != nil {
		return errors.New(errors.StoreUnavailable, "failed to write version entry", err)
	}
	return nil
}

// History returns every recorded period of a series, ascending.
func (p *PostgresStore) History(ctx context.Context, key trade.SeriesKey) ([]*VersionEntry, error) {
	if p.pool == nil {
		return nil, errors.New(errors.StoreUnavailable, "postgres store not initialized", nil)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT period, recorded_at, checksum, snapshot, diff, quality
		FROM version_entries
		WHERE feature = $1 AND trade_type = $2 AND entity_code = $3
		ORDER BY period ASC
	`, key.Feature, key.TradeType, key.EntityCode)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to read series history", err)
	}
	defer rows.Close()

	var entries []*VersionEntry
	for rows.Next() {
		entry, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "failed to scan version entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to iterate series history", err)
	}
	return entries, nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

type pgxScanner interface {
	Scan(dest ...any) error
}

func scanPostgresEntry(row pgxScanner) (*VersionEntry, error) {
	var (
		period      string
		recordedAt  time.Time
		sum         string
		snapshot    []byte
		diffJSON    []byte
		qualityJSON []byte
	)
	if err := row.Scan(&period, &recordedAt, &sum, &snapshot, &diffJSON, &qualityJSON); err != nil {
		return nil, err
	}

	entry, err := entryFromColumns(period, recordedAt, sum, snapshot, diffJSON, qualityJSON)
	if err != nil {
		return nil, fmt.Errorf("decode version entry: %w", err)
	}
	return entry, nil
}
