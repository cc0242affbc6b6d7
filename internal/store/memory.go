package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// MemoryStore keeps version histories in process memory. It backs tests and
// dry runs; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string]map[string]*VersionEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		series: make(map[string]map[string]*VersionEntry),
	}
}

// GetLatest returns the stored entry for the identity's period, nil when the
// identity has never been recorded.
func (m *MemoryStore) GetLatest(_ context.Context, id trade.Identity) (*VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	periods, ok := m.series[id.SeriesKey.String()]
	if !ok {
		return nil, nil
	}
	entry, ok := periods[id.Period]
	if !ok {
		return nil, nil
	}
	return cloneEntry(entry), nil
}

// AppendOrReplace writes the entry for (identity, entry.Period). A matching
// stored checksum makes the call a no-op so the stored diff survives re-runs.
func (m *MemoryStore) AppendOrReplace(_ context.Context, id trade.Identity, entry *VersionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.SeriesKey.String()
	periods, ok := m.series[key]
	if !ok {
		periods = make(map[string]*VersionEntry)
		m.series[key] = periods
	}

	if stored, ok := periods[entry.Period]; ok && stored.Checksum == entry.Checksum {
		return nil
	}

	periods[entry.Period] = cloneEntry(entry)
	return nil
}

// History returns every recorded period of a series, ascending.
func (m *MemoryStore) History(_ context.Context, key trade.SeriesKey) ([]*VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	periods, ok := m.series[key.String()]
	if !ok {
		return nil, nil
	}

	out := make([]*VersionEntry, 0, len(periods))
	for _, entry := range periods {
		out = append(out, cloneEntry(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error {
	return nil
}

// cloneEntry deep-copies an entry so callers and the store never share
// mutable state.
func cloneEntry(e *VersionEntry) *VersionEntry {
	out := &VersionEntry{
		Period:    e.Period,
		Timestamp: e.Timestamp,
		Checksum:  e.Checksum,
		Snapshot:  e.Snapshot.Clone(),
	}
	if e.Diff != nil {
		if data, err := e.Diff.ToJSON(); err == nil {
			if report, err := diff.ParseReport(data); err == nil {
				out.Diff = report
			}
		}
	}
	if e.Quality != nil {
		q := *e.Quality
		out.Quality = &q
	}
	return out
}
