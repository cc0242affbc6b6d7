package trade

import (
	"encoding/json"
	"testing"
)

func TestIdentityValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identity
		wantErr bool
	}{
		{"valid export", NewIdentity("commodity_wise_all_countries", TradeExport, "09011112", "2024-25"), false},
		{"valid import", NewIdentity("commodity_wise_all_countries", TradeImport, "09011112", "2023-24"), false},
		{"empty feature", NewIdentity("", TradeExport, "09011112", "2024-25"), true},
		{"bad trade type", NewIdentity("f", "both", "09011112", "2024-25"), true},
		{"empty code", NewIdentity("f", TradeExport, "  ", "2024-25"), true},
		{"bad period", NewIdentity("f", TradeExport, "09011112", "2024"), true},
		{"period with words", NewIdentity("f", TradeExport, "09011112", "FY24-25"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIdentityString(t *testing.T) {
	id := NewIdentity("commodity_wise_all_countries", TradeExport, "09011112", "2024-25")
	want := "commodity_wise_all_countries/export/09011112@2024-25"
	if id.String() != want {
		t.Errorf("String() = %q, want %q", id.String(), want)
	}
}

func TestRawValueDecoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{"number", `12.5`, Num(12.5)},
		{"integer", `140`, Num(140)},
		{"null", `null`, nil},
		{"comma grouped", `"25,162.46"`, Num(25162.46)},
		{"plain string", `"3.14"`, Num(3.14)},
		{"dash marker", `"-"`, nil},
		{"na marker", `"NA"`, nil},
		{"empty string", `""`, nil},
		{"garbage string", `"abc"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v RawValue
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if (v.Val == nil) != (tt.want == nil) {
				t.Fatalf("Val = %v, want %v", v.Val, tt.want)
			}
			if tt.want != nil && *v.Val != *tt.want {
				t.Errorf("Val = %v, want %v", *v.Val, *tt.want)
			}
		})
	}
}

func TestPartnerRecordFieldRoundTrip(t *testing.T) {
	var rec PartnerRecord
	for i, name := range TrackedFields {
		rec.SetField(name, Num(float64(i+1)))
	}
	for i, name := range TrackedFields {
		got := rec.Field(name)
		if got == nil || *got != float64(i+1) {
			t.Errorf("Field(%s) = %v, want %d", name, got, i+1)
		}
	}
	if rec.Field("unknown") != nil {
		t.Error("unknown field should be nil")
	}
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := &Snapshot{
		Identity:  NewIdentity("f", TradeExport, "0901", "2024-25"),
		Commodity: Commodity{Code: "0901", Description: "COFFEE", Unit: "Ton"},
		Partners: map[string]PartnerRecord{
			"GERMANY": {USD: ValueAxis{Curr: Num(10)}},
		},
	}

	clone := snap.Clone()
	clone.Partners["GERMANY"] = PartnerRecord{USD: ValueAxis{Curr: Num(99)}}
	clone.Partners["FRANCE"] = PartnerRecord{}

	if *snap.Partners["GERMANY"].USD.Curr != 10 {
		t.Error("mutating the clone must not touch the original record")
	}
	if len(snap.Partners) != 1 {
		t.Error("mutating the clone must not grow the original partner map")
	}
}

func TestQualitySummary(t *testing.T) {
	q := &QualityMetrics{
		TotalRecords:     140,
		RecordsComplete:  138,
		RecordsMissing:   2,
		CompletenessPct:  98.6,
		ValidationStatus: ValidationValid,
	}
	want := "VALID 98.6% (138/140 records)"
	if q.Summary() != want {
		t.Errorf("Summary() = %q, want %q", q.Summary(), want)
	}

	var missing *QualityMetrics
	if missing.Summary() != "n/a" {
		t.Errorf("nil Summary() = %q, want n/a", missing.Summary())
	}
}
