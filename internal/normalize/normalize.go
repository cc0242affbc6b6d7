// Package normalize converts raw extracted records into canonical snapshots:
// partner keys trimmed, uppercased and de-duplicated, numerics coerced to
// fixed precision or the missing sentinel. Pure functions, no side effects.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Precision is the number of decimal places every canonical numeric carries.
const Precision = 6

// RoundFixed rounds a float to the canonical precision.
func RoundFixed(f float64) float64 {
	multiplier := math.Pow(10, Precision)
	return math.Round(f*multiplier) / multiplier
}

// FormatFixed formats a canonical numeric with trailing zeros removed, for
// hashing and display.
func FormatFixed(f float64) string {
	str := strconv.FormatFloat(RoundFixed(f), 'f', Precision, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	return str
}

// Key canonicalizes a partner key: trimmed, inner whitespace collapsed,
// uppercased.
func Key(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Snapshot builds the canonical snapshot for a raw record.
//
// Fails with MALFORMED_SNAPSHOT when the identity is invalid, the commodity
// descriptor is absent, or the partner collection is absent (nil). An empty
// partner list is a valid empty extraction. Duplicate partner keys keep the
// first occurrence. Unparseable or absent values become the missing
// sentinel; they are never conflated with zero.
func Snapshot(raw *trade.RawRecord) (*trade.Snapshot, error) {
	if raw == nil {
		return nil, errors.New(errors.MalformedSnapshot, "raw record is nil", nil)
	}

	id := raw.Identity()
	if err := id.Validate(); err != nil {
		return nil, errors.New(errors.MalformedSnapshot, "invalid identity", err)
	}
	if strings.TrimSpace(raw.Commodity.Code) == "" {
		return nil, errors.New(errors.MalformedSnapshot, "commodity descriptor is absent", nil).
			WithDetails(map[string]string{"identity": id.String()})
	}
	if raw.Partners == nil {
		return nil, errors.New(errors.MalformedSnapshot, "partner collection is absent", nil).
			WithDetails(map[string]string{"identity": id.String()})
	}

	snap := &trade.Snapshot{
		Identity: id,
		Commodity: trade.Commodity{
			Code:        strings.TrimSpace(raw.Commodity.Code),
			Description: strings.TrimSpace(raw.Commodity.Description),
			Unit:        strings.TrimSpace(raw.Commodity.Unit),
		},
		Partners: make(map[string]trade.PartnerRecord, len(raw.Partners)),
	}

	for _, rp := range raw.Partners {
		key := Key(rp.Name)
		if key == "" {
			continue
		}
		if _, seen := snap.Partners[key]; seen {
			continue
		}
		snap.Partners[key] = trade.PartnerRecord{
			USD: axis(rp.USD),
			Qty: axis(rp.Qty),
		}
	}

	if raw.Totals != nil {
		snap.Totals = trade.Totals{
			Total:    trade.PartnerRecord{USD: axis(raw.Totals.Total.USD), Qty: axis(raw.Totals.Total.Qty)},
			Reporter: trade.PartnerRecord{USD: axis(raw.Totals.Reporter.USD), Qty: axis(raw.Totals.Reporter.Qty)},
			SharePct: axis(raw.Totals.SharePct),
		}
	}

	return snap, nil
}

func axis(a trade.RawAxis) trade.ValueAxis {
	return trade.ValueAxis{
		Prev:   fixed(a.Prev.Val),
		Curr:   fixed(a.Curr.Val),
		Growth: fixed(a.Growth.Val),
	}
}

func fixed(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundFixed(*v)
	return &r
}
