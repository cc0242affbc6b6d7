package trade

import "sort"

// Tracked numeric field names, stable across periods. prev/curr refer to the
// two financial years the source publishes side by side; growth is the
// source's own growth percentage, tracked as a first-class value.
const (
	FieldUSDPrev   = "usd_prev"
	FieldUSDCurr   = "usd_curr"
	FieldUSDGrowth = "usd_growth"
	FieldQtyPrev   = "qty_prev"
	FieldQtyCurr   = "qty_curr"
	FieldQtyGrowth = "qty_growth"
)

// TrackedFields lists the diffable partner fields in canonical order.
var TrackedFields = []string{
	FieldUSDPrev,
	FieldUSDCurr,
	FieldUSDGrowth,
	FieldQtyPrev,
	FieldQtyCurr,
	FieldQtyGrowth,
}

// ValueAxis is one measurement axis of a partner row. A nil field is the
// missing sentinel, never the same thing as zero.
type ValueAxis struct {
	Prev   *float64 `json:"prev,omitempty"`
	Curr   *float64 `json:"curr,omitempty"`
	Growth *float64 `json:"growth,omitempty"`
}

// PartnerRecord holds the tracked fields of one trading partner.
type PartnerRecord struct {
	USD ValueAxis `json:"usd"`
	Qty ValueAxis `json:"qty"`
}

// Field returns the named tracked field, nil when missing or unknown.
func (p PartnerRecord) Field(name string) *float64 {
	switch name {
	case FieldUSDPrev:
		return p.USD.Prev
	case FieldUSDCurr:
		return p.USD.Curr
	case FieldUSDGrowth:
		return p.USD.Growth
	case FieldQtyPrev:
		return p.Qty.Prev
	case FieldQtyCurr:
		return p.Qty.Curr
	case FieldQtyGrowth:
		return p.Qty.Growth
	}
	return nil
}

// SetField assigns the named tracked field. Unknown names are ignored.
func (p *PartnerRecord) SetField(name string, v *float64) {
	switch name {
	case FieldUSDPrev:
		p.USD.Prev = v
	case FieldUSDCurr:
		p.USD.Curr = v
	case FieldUSDGrowth:
		p.USD.Growth = v
	case FieldQtyPrev:
		p.Qty.Prev = v
	case FieldQtyCurr:
		p.Qty.Curr = v
	case FieldQtyGrowth:
		p.Qty.Growth = v
	}
}

// Clone returns a deep copy of the record.
func (p PartnerRecord) Clone() PartnerRecord {
	out := PartnerRecord{}
	for _, f := range TrackedFields {
		out.SetField(f, copyFloat(p.Field(f)))
	}
	return out
}

// Commodity describes the entity a snapshot covers.
type Commodity struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// Totals carries the source's aggregate rows: the grand total across
// partners, the reporting country's own line, and its percentage share.
type Totals struct {
	Total    PartnerRecord `json:"total"`
	Reporter PartnerRecord `json:"reporter"`
	SharePct ValueAxis     `json:"share_pct"`
}

// Snapshot is the canonical extraction for one identity: normalized partner
// keys, fixed-precision numerics, explicit missing sentinels.
type Snapshot struct {
	Identity  Identity                 `json:"identity"`
	Commodity Commodity                `json:"commodity"`
	Partners  map[string]PartnerRecord `json:"partners"`
	Totals    Totals                   `json:"totals"`
}

// PartnerKeys returns the partner keys sorted ascending.
func (s *Snapshot) PartnerKeys() []string {
	keys := make([]string, 0, len(s.Partners))
	for k := range s.Partners {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy, so stores can hand out snapshots without
// sharing mutable state with callers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Identity:  s.Identity,
		Commodity: s.Commodity,
		Totals:    s.Totals.Clone(),
	}
	if s.Partners != nil {
		out.Partners = make(map[string]PartnerRecord, len(s.Partners))
		for k, v := range s.Partners {
			out.Partners[k] = v.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the totals block.
func (t Totals) Clone() Totals {
	return Totals{
		Total:    t.Total.Clone(),
		Reporter: t.Reporter.Clone(),
		SharePct: ValueAxis{
			Prev:   copyFloat(t.SharePct.Prev),
			Curr:   copyFloat(t.SharePct.Curr),
			Growth: copyFloat(t.SharePct.Growth),
		},
	}
}

// Num returns a pointer to v, for building records in place.
func Num(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
