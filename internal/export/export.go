// Package export writes consolidated series documents: every stored
// recording of one dataset slice collected into a single JSON file,
// optionally zstd-compressed.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Document is the consolidated export of one series.
type Document struct {
	Series      trade.SeriesKey `json:"series"`
	GeneratedAt string          `json:"generated_at"`
	Count       int             `json:"count"`
	Entries     []Entry         `json:"entries"`
}

// Entry is one recorded period inside a Document.
type Entry struct {
	Period     string                `json:"period"`
	RecordedAt string                `json:"recorded_at"`
	Checksum   string                `json:"checksum"`
	Snapshot   *trade.Snapshot       `json:"snapshot"`
	Diff       *diff.Report          `json:"diff,omitempty"`
	Quality    *trade.QualityMetrics `json:"quality,omitempty"`
}

var encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

// Writer produces export files from the version store.
type Writer struct {
	store  store.Store
	logger *logging.Logger
}

// NewWriter creates a writer over the given store.
func NewWriter(s store.Store, logger *logging.Logger) *Writer {
	return &Writer{store: s, logger: logger}
}

// WriteSeries exports every recorded period of the series into dir, ordered
// ascending, and returns the path of the written file. With compress the
// output is zstd-framed and the file name gains a .zst suffix. A series with
// no recordings is an error, not an empty file.
func (w *Writer) WriteSeries(ctx context.Context, key trade.SeriesKey, dir string, compress bool) (string, error) {
	if err := key.Validate(); err != nil {
		return "", errors.New(errors.MalformedSnapshot, "invalid series key", err)
	}

	stored, err := w.store.History(ctx, key)
	if err != nil {
		return "", err
	}
	if len(stored) == 0 {
		return "", errors.New(errors.NoBaseline,
			fmt.Sprintf("series %s has no recordings to export", key.String()), nil)
	}

	doc := &Document{
		Series:      key,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Count:       len(stored),
		Entries:     make([]Entry, 0, len(stored)),
	}
	for _, ve := range stored {
		doc.Entries = append(doc.Entries, Entry{
			Period:     ve.Period,
			RecordedAt: ve.Timestamp.UTC().Format(time.RFC3339),
			Checksum:   ve.Checksum,
			Snapshot:   ve.Snapshot,
			Diff:       ve.Diff,
			Quality:    ve.Quality,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.New(errors.InternalError, "failed to encode export document", err)
	}
	if compress {
		data = encoder.EncodeAll(data, nil)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.New(errors.InternalError, "failed to create export directory", err)
	}
	path := filepath.Join(dir, FileName(key, compress))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.New(errors.InternalError, "failed to write export file", err)
	}

	w.logger.Info("Exported series", map[string]interface{}{
		"series":     key.String(),
		"path":       path,
		"periods":    doc.Count,
		"compressed": compress,
	})
	return path, nil
}

// FileName derives the export file name from the series key.
func FileName(key trade.SeriesKey, compress bool) string {
	name := fmt.Sprintf("%s_%s_%s.json",
		sanitize(key.Feature), sanitize(key.TradeType), sanitize(key.EntityCode))
	if compress {
		name += ".zst"
	}
	return name
}

// sanitize keeps file names portable across filesystems.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
