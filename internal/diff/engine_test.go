package diff

import (
	"reflect"
	"testing"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// snap builds a snapshot whose partners carry a single usd_curr value.
func snap(values map[string]float64) *trade.Snapshot {
	s := &trade.Snapshot{
		Identity:  trade.NewIdentity("commodity_wise_all_countries", trade.TradeExport, "09011112", "2024-25"),
		Commodity: trade.Commodity{Code: "09011112"},
		Partners:  map[string]trade.PartnerRecord{},
	}
	for name, v := range values {
		s.Partners[name] = trade.PartnerRecord{USD: trade.ValueAxis{Curr: trade.Num(v)}}
	}
	return s
}

func TestCompareBaseline(t *testing.T) {
	current := snap(map[string]float64{"GERMANY": 10, "ITALY": 20})

	report := Compare(nil, current)

	if !report.IsBaseline {
		t.Error("expected is_baseline for a nil baseline")
	}
	if want := []string{"GERMANY", "ITALY"}; !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
	if len(report.Removed) != 0 || len(report.Modified) != 0 {
		t.Error("baseline report should have no removed or modified entries")
	}
	if report.TotalChanges != 0 {
		t.Errorf("TotalChanges = %d, want 0 for a baseline", report.TotalChanges)
	}
	if report.PercentChange != 100.0 {
		t.Errorf("PercentChange = %v, want 100.0", report.PercentChange)
	}
	if report.DriftLevel != DriftBaseline {
		t.Errorf("DriftLevel = %v, want BASELINE", report.DriftLevel)
	}
	if !report.HasChanges() {
		t.Error("a baseline recording counts as having changes")
	}
}

func TestCompareScenarioA(t *testing.T) {
	baseline := snap(map[string]float64{"A": 10, "B": 20})
	current := snap(map[string]float64{"A": 10, "B": 25, "C": 5})

	report := Compare(baseline, current)

	if want := []string{"C"}; !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
	if len(report.Removed) != 0 {
		t.Errorf("Removed = %v, want empty", report.Removed)
	}
	if want := []string{"B"}; !reflect.DeepEqual(report.ModifiedKeys(), want) {
		t.Errorf("Modified keys = %v, want %v", report.ModifiedKeys(), want)
	}

	change := report.Modified["B"][trade.FieldUSDCurr]
	if change.Difference == nil || *change.Difference != 5 {
		t.Errorf("difference = %v, want 5", change.Difference)
	}
	if change.PercentChange == nil || *change.PercentChange != 25 {
		t.Errorf("percent_change = %v, want 25", change.PercentChange)
	}

	if report.TotalChanges != 2 {
		t.Errorf("TotalChanges = %d, want 2", report.TotalChanges)
	}
	if report.PercentChange != 66.67 {
		t.Errorf("PercentChange = %v, want 66.67", report.PercentChange)
	}
	if report.DriftLevel != DriftCritical {
		t.Errorf("DriftLevel = %v, want CRITICAL", report.DriftLevel)
	}
}

func TestCompareScenarioBIdentical(t *testing.T) {
	baseline := snap(map[string]float64{"A": 10, "B": 20})
	current := snap(map[string]float64{"A": 10, "B": 20})

	report := Compare(baseline, current)

	if report.HasChanges() {
		t.Error("identical snapshots must report no changes")
	}
	if report.PercentChange != 0.0 {
		t.Errorf("PercentChange = %v, want 0.0", report.PercentChange)
	}
	if report.DriftLevel != DriftNoChange {
		t.Errorf("DriftLevel = %v, want NO_CHANGE", report.DriftLevel)
	}
}

func TestCompareScenarioCAllRemoved(t *testing.T) {
	baseline := snap(map[string]float64{"X": 100})
	current := snap(map[string]float64{})

	report := Compare(baseline, current)

	if want := []string{"X"}; !reflect.DeepEqual(report.Removed, want) {
		t.Errorf("Removed = %v, want %v", report.Removed, want)
	}
	if report.TotalChanges != 1 {
		t.Errorf("TotalChanges = %d, want 1", report.TotalChanges)
	}
	if report.PercentChange != 100.0 {
		t.Errorf("PercentChange = %v, want 100.0", report.PercentChange)
	}
	if report.DriftLevel != DriftCritical {
		t.Errorf("DriftLevel = %v, want CRITICAL", report.DriftLevel)
	}
}

func TestCompareBothEmpty(t *testing.T) {
	report := Compare(snap(nil), snap(nil))

	if report.TotalChanges != 0 {
		t.Errorf("TotalChanges = %d, want 0", report.TotalChanges)
	}
	if report.PercentChange != 0.0 {
		t.Errorf("PercentChange = %v, want 0.0", report.PercentChange)
	}
	if report.DriftLevel != DriftNoChange {
		t.Errorf("DriftLevel = %v, want NO_CHANGE", report.DriftLevel)
	}
}

func TestCompareSetSymmetry(t *testing.T) {
	a := snap(map[string]float64{"A": 1, "B": 2, "C": 3})
	b := snap(map[string]float64{"B": 2, "D": 4})

	ab := Compare(a, b)
	ba := Compare(b, a)

	if !reflect.DeepEqual(ab.Added, ba.Removed) {
		t.Errorf("added(A,B) = %v, removed(B,A) = %v, want equal", ab.Added, ba.Removed)
	}
	if !reflect.DeepEqual(ab.Removed, ba.Added) {
		t.Errorf("removed(A,B) = %v, added(B,A) = %v, want equal", ab.Removed, ba.Added)
	}
}

func TestCompareSelfIsNoChange(t *testing.T) {
	s := snap(map[string]float64{"GERMANY": 12.5, "ITALY": 0, "BELGIUM": 7.25})

	report := Compare(s, s)

	if report.HasChanges() || report.TotalChanges != 0 {
		t.Errorf("Compare(S, S) must be empty, got %s", report.Summary())
	}
	if report.DriftLevel != DriftNoChange {
		t.Errorf("DriftLevel = %v, want NO_CHANGE", report.DriftLevel)
	}
}

func TestCompareMissingPresentTransition(t *testing.T) {
	baseline := snap(map[string]float64{})
	baseline.Partners["GERMANY"] = trade.PartnerRecord{}
	current := snap(map[string]float64{"GERMANY": 10})

	report := Compare(baseline, current)

	if report.TotalChanges != 1 {
		t.Fatalf("missing-to-present must count as a modification, got %d changes", report.TotalChanges)
	}
	change := report.Modified["GERMANY"][trade.FieldUSDCurr]
	if change.Previous != nil {
		t.Errorf("Previous = %v, want nil", change.Previous)
	}
	if change.Current == nil || *change.Current != 10 {
		t.Errorf("Current = %v, want 10", change.Current)
	}
	if change.Difference != nil {
		t.Error("Difference must be nil when one side is missing")
	}
	if change.PercentChange != nil {
		t.Error("PercentChange must be nil when previous is missing")
	}
}

func TestComparePercentNullWhenPreviousZero(t *testing.T) {
	baseline := snap(map[string]float64{"GERMANY": 0})
	current := snap(map[string]float64{"GERMANY": 50})

	report := Compare(baseline, current)

	change := report.Modified["GERMANY"][trade.FieldUSDCurr]
	if change.Difference == nil || *change.Difference != 50 {
		t.Errorf("Difference = %v, want 50", change.Difference)
	}
	if change.PercentChange != nil {
		t.Errorf("PercentChange = %v, want nil for a zero previous", *change.PercentChange)
	}
}

func TestComparePercentComputedWhenCurrentZero(t *testing.T) {
	baseline := snap(map[string]float64{"GERMANY": 10})
	current := snap(map[string]float64{"GERMANY": 0})

	report := Compare(baseline, current)

	change := report.Modified["GERMANY"][trade.FieldUSDCurr]
	if change.PercentChange == nil || *change.PercentChange != -100 {
		t.Errorf("PercentChange = %v, want -100", change.PercentChange)
	}
}

func TestComparePercentUsesAbsolutePrevious(t *testing.T) {
	baseline := snap(map[string]float64{"GERMANY": -10})
	current := snap(map[string]float64{"GERMANY": -15})

	report := Compare(baseline, current)

	change := report.Modified["GERMANY"][trade.FieldUSDCurr]
	if change.PercentChange == nil || *change.PercentChange != -50 {
		t.Errorf("PercentChange = %v, want -50 (difference over |previous|)", change.PercentChange)
	}
}

func TestCompareFixedPrecisionEquality(t *testing.T) {
	baseline := snap(map[string]float64{"GERMANY": 10.00000004})
	current := snap(map[string]float64{"GERMANY": 10.00000001})

	report := Compare(baseline, current)
	if report.TotalChanges != 0 {
		t.Error("sub-precision noise must not register as a change")
	}

	baseline = snap(map[string]float64{"GERMANY": 10.000001})
	current = snap(map[string]float64{"GERMANY": 10.000002})

	report = Compare(baseline, current)
	if report.TotalChanges != 1 {
		t.Error("a change at canonical precision must register")
	}
}

func TestCompareGrowthFieldTrackedIndependently(t *testing.T) {
	baseline := snap(map[string]float64{})
	baseline.Partners["GERMANY"] = trade.PartnerRecord{
		USD: trade.ValueAxis{Curr: trade.Num(10), Growth: trade.Num(5.5)},
	}
	current := snap(map[string]float64{})
	current.Partners["GERMANY"] = trade.PartnerRecord{
		USD: trade.ValueAxis{Curr: trade.Num(10), Growth: trade.Num(6.5)},
	}

	report := Compare(baseline, current)

	if report.TotalChanges != 1 {
		t.Fatal("a growth-only change must count as a modification")
	}
	if _, ok := report.Modified["GERMANY"][trade.FieldUSDGrowth]; !ok {
		t.Errorf("expected usd_growth in modified fields, got %v", report.Modified["GERMANY"])
	}
	if _, ok := report.Modified["GERMANY"][trade.FieldUSDCurr]; ok {
		t.Error("usd_curr did not change and must not be listed")
	}
}

func TestCompareMonotonicSeverity(t *testing.T) {
	// Fixed 20-partner universe; modify one more partner each step.
	baseline := snap(map[string]float64{})
	for i := 0; i < 20; i++ {
		baseline.Partners[partnerName(i)] = trade.PartnerRecord{USD: trade.ValueAxis{Curr: trade.Num(100)}}
	}

	prevRank := -1
	prevTotal := -1
	for modified := 0; modified <= 20; modified++ {
		current := snap(map[string]float64{})
		for i := 0; i < 20; i++ {
			v := 100.0
			if i < modified {
				v = 200.0
			}
			current.Partners[partnerName(i)] = trade.PartnerRecord{USD: trade.ValueAxis{Curr: trade.Num(v)}}
		}

		report := Compare(baseline, current)
		if report.TotalChanges != modified {
			t.Fatalf("TotalChanges = %d, want %d", report.TotalChanges, modified)
		}
		if prevTotal >= 0 && report.TotalChanges != prevTotal+1 {
			t.Fatalf("modifying one more partner must raise TotalChanges by exactly one")
		}
		rank := report.DriftLevel.Rank()
		if rank < prevRank {
			t.Fatalf("severity dropped from rank %d to %d at %d changes", prevRank, rank, modified)
		}
		prevRank = rank
		prevTotal = report.TotalChanges
	}
}

func partnerName(i int) string {
	return "P" + string(rune('A'+i))
}

func TestReportJSONRoundTrip(t *testing.T) {
	baseline := snap(map[string]float64{"A": 10, "B": 20})
	current := snap(map[string]float64{"B": 25, "C": 5})

	report := Compare(baseline, current)
	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := ParseReport(data)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if !reflect.DeepEqual(parsed, report) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, report)
	}
}

func TestParseReportDefaultsEmptyCollections(t *testing.T) {
	parsed, err := ParseReport([]byte(`{"total_changes":0,"percent_change":0,"drift_level":"NO_CHANGE","is_baseline":false}`))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if parsed.Added == nil || parsed.Removed == nil || parsed.Modified == nil {
		t.Error("absent collections should parse as empty, not nil")
	}
}
