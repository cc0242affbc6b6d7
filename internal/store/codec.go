package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Snapshot payloads are stored as zstd-compressed JSON. Partner tables run
// to hundreds of rows per period and compress well; the encoder and decoder
// are stateless in EncodeAll/DecodeAll mode and safe for concurrent use.
var (
	snapEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	snapDecoder, _ = zstd.NewReader(nil)
)

func encodeSnapshot(s *trade.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return snapEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodeSnapshot(blob []byte) (*trade.Snapshot, error) {
	raw, err := snapDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s trade.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.Partners == nil {
		s.Partners = map[string]trade.PartnerRecord{}
	}
	return &s, nil
}

func encodeQuality(q *trade.QualityMetrics) ([]byte, error) {
	if q == nil {
		return nil, nil
	}
	return json.Marshal(q)
}

func decodeQuality(data []byte) (*trade.QualityMetrics, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var q trade.QualityMetrics
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("unmarshal quality metrics: %w", err)
	}
	return &q, nil
}

// entryFromColumns assembles a VersionEntry from the common column set the
// SQL backends share.
func entryFromColumns(period string, recordedAt time.Time, sum string, snapshot, diffJSON, qualityJSON []byte) (*VersionEntry, error) {
	snap, err := decodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	report, err := diff.ParseReport(diffJSON)
	if err != nil {
		return nil, err
	}
	quality, err := decodeQuality(qualityJSON)
	if err != nil {
		return nil, err
	}
	return &VersionEntry{
		Period:    period,
		Timestamp: recordedAt.UTC(),
		Checksum:  sum,
		Snapshot:  snap,
		Diff:      report,
		Quality:   quality,
	}, nil
}
