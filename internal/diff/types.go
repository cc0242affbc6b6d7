// Package diff compares canonical snapshots and classifies how far a slice
// has drifted from its previous recording.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DriftLevel is the ordered severity of a diff.
type DriftLevel string

const (
	// DriftBaseline marks the first recording of an identity.
	DriftBaseline DriftLevel = "BASELINE"
	// DriftNoChange means the snapshot is identical to its predecessor.
	DriftNoChange DriftLevel = "NO_CHANGE"
	// DriftMinimal covers aggregate change below 5 percent.
	DriftMinimal DriftLevel = "MINIMAL"
	// DriftModerate covers [5, 15) percent.
	DriftModerate DriftLevel = "MODERATE"
	// DriftSignificant covers [15, 30) percent.
	DriftSignificant DriftLevel = "SIGNIFICANT"
	// DriftCritical covers 30 percent and above.
	DriftCritical DriftLevel = "CRITICAL"
)

var driftRank = map[DriftLevel]int{
	DriftBaseline:    0,
	DriftNoChange:    0,
	DriftMinimal:     1,
	DriftModerate:    2,
	DriftSignificant: 3,
	DriftCritical:    4,
}

// Rank orders drift levels by severity. BASELINE ranks with NO_CHANGE since
// it carries no comparative information.
func (d DriftLevel) Rank() int {
	return driftRank[d]
}

// FieldChange records one tracked field's movement between recordings.
// Difference is nil when either side is missing; PercentChange is nil when
// the previous value is missing or zero.
type FieldChange struct {
	Previous      *float64 `json:"previous" yaml:"previous"`
	Current       *float64 `json:"current" yaml:"current"`
	Difference    *float64 `json:"difference" yaml:"difference"`
	PercentChange *float64 `json:"percent_change" yaml:"percent_change"`
}

// Report is the structured delta between a baseline snapshot and the current
// one. Added and Removed are sorted partner keys; Modified maps partner key
// to the fields that differ.
type Report struct {
	Added         []string                          `json:"added" yaml:"added"`
	Removed       []string                          `json:"removed" yaml:"removed"`
	Modified      map[string]map[string]FieldChange `json:"modified" yaml:"modified"`
	TotalChanges  int                               `json:"total_changes" yaml:"total_changes"`
	PercentChange float64                           `json:"percent_change" yaml:"percent_change"`
	DriftLevel    DriftLevel                        `json:"drift_level" yaml:"drift_level"`
	IsBaseline    bool                              `json:"is_baseline" yaml:"is_baseline"`
}

// HasChanges reports whether the run observed anything new. Baselines count:
// the first recording is news.
func (r *Report) HasChanges() bool {
	return r.IsBaseline || r.TotalChanges > 0
}

// ModifiedKeys returns the modified partner keys sorted ascending.
func (r *Report) ModifiedKeys() []string {
	keys := make([]string, 0, len(r.Modified))
	for k := range r.Modified {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary renders a one-line description for logs and changelog rows.
func (r *Report) Summary() string {
	if r.IsBaseline {
		return fmt.Sprintf("baseline (%d partners)", len(r.Added))
	}
	return fmt.Sprintf("%d changes (%.2f%%) %s", r.TotalChanges, r.PercentChange, r.DriftLevel)
}

// ToJSON serializes the report for persistence.
func (r *Report) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ParseReport deserializes a persisted report.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse diff report: %w", err)
	}
	if r.Added == nil {
		r.Added = []string{}
	}
	if r.Removed == nil {
		r.Removed = []string{}
	}
	if r.Modified == nil {
		r.Modified = map[string]map[string]FieldChange{}
	}
	return &r, nil
}
