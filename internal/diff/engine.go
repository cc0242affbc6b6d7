package diff

import (
	"math"
	"sort"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/normalize"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Compare produces the delta between a baseline snapshot and the current
// one. A nil baseline marks the first recording of the identity: every
// current partner is reported added, total_changes stays zero and
// percent_change is pinned to 100.
func Compare(baseline, current *trade.Snapshot) *Report {
	report := &Report{
		Added:    []string{},
		Removed:  []string{},
		Modified: map[string]map[string]FieldChange{},
	}

	if baseline == nil {
		report.Added = current.PartnerKeys()
		report.IsBaseline = true
		report.PercentChange = 100.0
		report.DriftLevel = DriftBaseline
		return report
	}

	union := make(map[string]struct{}, len(baseline.Partners)+len(current.Partners))

	for key, curr := range current.Partners {
		union[key] = struct{}{}
		prev, ok := baseline.Partners[key]
		if !ok {
			report.Added = append(report.Added, key)
			continue
		}
		if changes := compareRecords(prev, curr); len(changes) > 0 {
			report.Modified[key] = changes
		}
	}

	for key := range baseline.Partners {
		union[key] = struct{}{}
		if _, ok := current.Partners[key]; !ok {
			report.Removed = append(report.Removed, key)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Removed)

	report.TotalChanges = len(report.Added) + len(report.Removed) + len(report.Modified)

	denominator := len(union)
	if denominator < 1 {
		denominator = 1
	}
	report.PercentChange = round2(float64(report.TotalChanges) / float64(denominator) * 100)
	report.DriftLevel = Classify(report.PercentChange, report.IsBaseline)

	return report
}

// compareRecords returns the per-field changes between two partner records,
// empty when all tracked fields agree at canonical precision.
func compareRecords(prev, curr trade.PartnerRecord) map[string]FieldChange {
	var changes map[string]FieldChange

	for _, name := range trade.TrackedFields {
		p := prev.Field(name)
		c := curr.Field(name)
		if fieldsEqual(p, c) {
			continue
		}
		if changes == nil {
			changes = make(map[string]FieldChange)
		}
		changes[name] = fieldChange(p, c)
	}

	return changes
}

// fieldsEqual compares two optional values at canonical precision. A
// missing value only equals another missing value.
func fieldsEqual(p, c *float64) bool {
	if p == nil || c == nil {
		return p == nil && c == nil
	}
	return normalize.RoundFixed(*p) == normalize.RoundFixed(*c)
}

// fieldChange builds the change record for one field. The difference needs
// both sides; the percent change additionally needs a nonzero previous.
func fieldChange(p, c *float64) FieldChange {
	change := FieldChange{
		Previous: copyFloat(p),
		Current:  copyFloat(c),
	}
	if p == nil || c == nil {
		return change
	}
	diff := normalize.RoundFixed(*c - *p)
	change.Difference = &diff
	if *p != 0 {
		pct := round2(diff / math.Abs(*p) * 100)
		change.PercentChange = &pct
	}
	return change
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
