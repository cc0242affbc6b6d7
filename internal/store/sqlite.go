package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Schema version tracking
const currentSchemaVersion = 1

// SQLiteStore is the default embedded backend.
type SQLiteStore struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// NewSQLite opens or creates the version database at dbPath, creating parent
// directories as needed.
func NewSQLite(dbPath string, logger *logging.Logger) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New(errors.ConfigInvalid, "sqlite store path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to create store directory", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to open database", err)
	}

	// Set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL",  // Balance between safety and performance
		"PRAGMA foreign_keys=ON",     // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",   // Wait up to 5 seconds on lock
		"PRAGMA cache_size=-64000",   // 64MB cache
		"PRAGMA temp_store=MEMORY",   // Use memory for temp tables
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.New(errors.StoreUnavailable, "failed to set pragma", err)
		}
	}

	s := &SQLiteStore{
		conn:   conn,
		logger: logger.Component("store"),
		dbPath: dbPath,
	}

	if !dbExists {
		s.logger.Info("Creating new version database", map[string]interface{}{
			"path": dbPath,
		})
		if err := s.initializeSchema(); err != nil {
			conn.Close()
			return nil, errors.New(errors.StoreUnavailable, "failed to initialize schema", err)
		}
	} else {
		if err := s.runMigrations(); err != nil {
			conn.Close()
			return nil, errors.New(errors.StoreUnavailable, "failed to run migrations", err)
		}
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// withTx executes fn inside a transaction, rolling back on error or panic.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *SQLiteStore) initializeSchema() error {
	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			)`,
			`CREATE TABLE IF NOT EXISTS version_entries (
				feature     TEXT NOT NULL,
				trade_type  TEXT NOT NULL,
				entity_code TEXT NOT NULL,
				period      TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				checksum    TEXT NOT NULL,
				snapshot    BLOB NOT NULL,
				diff        TEXT NOT NULL,
				quality     TEXT,
				PRIMARY KEY (feature, trade_type, entity_code, period)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_version_entries_series
				ON version_entries(feature, trade_type, entity_code)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		s.logger.Info("Version store schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (s *SQLiteStore) runMigrations() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version == 0 {
		return s.initializeSchema()
	}

	s.logger.Info("Running store migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migrations run sequentially as the schema evolves.
	return nil
}

func (s *SQLiteStore) getSchemaVersion() (int, error) {
	var tableName string
	err := s.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = s.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// GetLatest returns the stored entry for the identity's period, nil when the
// identity has never been recorded.
func (s *SQLiteStore) GetLatest(ctx context.Context, id trade.Identity) (*VersionEntry, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT period, recorded_at, checksum, snapshot, diff, quality
		FROM version_entries
		WHERE feature = ? AND trade_type = ? AND entity_code = ? AND period = ?
	`, id.Feature, id.TradeType, id.EntityCode, id.Period)

	entry, err := scanEntry(row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to read version entry", err)
	}
	return entry, nil
}

// AppendOrReplace writes the entry for (identity, entry.Period). A matching
// stored checksum makes the call a no-op so the stored diff survives re-runs.
func (s *SQLiteStore) AppendOrReplace(ctx context.Context, id trade.Identity, entry *VersionEntry) error {
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

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var stored string
		err := tx.QueryRowContext(ctx, `
			SELECT checksum FROM version_entries
			WHERE feature = ? AND trade_type = ? AND entity_code = ? AND period = ?
		`, id.Feature, id.TradeType, id.EntityCode, entry.Period).Scan(&stored)
		if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && stored == entry.Checksum {
			s.logger.Debug("Checksum unchanged, keeping stored entry", map[string]interface{}{
				"identity": id.String(),
				"checksum": stored,
			})
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO version_entries
				(feature, trade_type, entity_code, period, recorded_at, checksum, snapshot, diff, quality)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id.Feature, id.TradeType, id.EntityCode, entry.Period,
			entry.Timestamp.UTC().Format(time.RFC3339), entry.Checksum,
			snapshotBlob, string(diffJSON), nullableString(qualityJSON))
		return err
	})
	if err != nil {
		return errors.New(errors.StoreUnavailable, "failed to write version entry", err)
	}
	return nil
}

// History returns every recorded period of a series, ascending.
func (s *SQLiteStore) History(ctx context.Context, key trade.SeriesKey) ([]*VersionEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT period, recorded_at, checksum, snapshot, diff, quality
		FROM version_entries
		WHERE feature = ? AND trade_type = ? AND entity_code = ?
		ORDER BY period ASC
	`, key.Feature, key.TradeType, key.EntityCode)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to read series history", err)
	}
	defer rows.Close()

	var entries []*VersionEntry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
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

// scanEntry decodes one version_entries row from any Scan-shaped source.
func scanEntry(scan func(...interface{}) error) (*VersionEntry, error) {
	var (
		period      string
		recordedAt  string
		sum         string
		snapshot    []byte
		diffJSON    string
		qualityJSON sql.NullString
	)
	if err := scan(&period, &recordedAt, &sum, &snapshot, &diffJSON, &qualityJSON); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}
	var quality []byte
	if qualityJSON.Valid {
		quality = []byte(qualityJSON.String)
	}
	return entryFromColumns(period, ts, sum, snapshot, []byte(diffJSON), quality)
}

func nullableString(data []byte) interface{} {
	if data == nil {
		return nil
	}
	return string(data)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
