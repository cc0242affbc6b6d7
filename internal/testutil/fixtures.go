package testutil

import (
	"time"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// CoffeeIdentity is the canned identity most tests record under.
func CoffeeIdentity(period string) trade.Identity {
	return trade.NewIdentity("commodity_wise_all_countries", trade.TradeExport, "09011112", period)
}

// FixedTime is a stable recording timestamp for assertions.
func FixedTime() time.Time {
	return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

// CoffeeSnapshot builds a normalized snapshot with the given partner
// usd_curr values.
func CoffeeSnapshot(period string, partners map[string]float64) *trade.Snapshot {
	id := CoffeeIdentity(period)
	snap := &trade.Snapshot{
		Identity: id,
		Commodity: trade.Commodity{
			Code:        id.EntityCode,
			Description: "Coffee, Arabica",
			Unit:        "Ton",
		},
		Partners: map[string]trade.PartnerRecord{},
	}
	for name, v := range partners {
		snap.Partners[name] = trade.PartnerRecord{USD: trade.ValueAxis{Curr: trade.Num(v)}}
	}
	return snap
}

// CoffeeRawRecord builds a raw payload matching CoffeeSnapshot, with partner
// names still in source casing.
func CoffeeRawRecord(period string, partners map[string]float64) *trade.RawRecord {
	id := CoffeeIdentity(period)
	raw := &trade.RawRecord{
		Feature:    id.Feature,
		TradeType:  id.TradeType,
		EntityCode: id.EntityCode,
		Period:     id.Period,
		Commodity: trade.Commodity{
			Code:        id.EntityCode,
			Description: "Coffee, Arabica",
			Unit:        "Ton",
		},
		Partners: []trade.RawPartner{},
		Quality: &trade.QualityMetrics{
			TotalRecords:     len(partners),
			RecordsComplete:  len(partners),
			CompletenessPct:  100,
			ValidationStatus: trade.ValidationValid,
		},
	}
	for name, v := range partners {
		value := v
		raw.Partners = append(raw.Partners, trade.RawPartner{
			Name: name,
			USD:  trade.RawAxis{Curr: trade.RawValue{Val: &value}},
		})
	}
	return raw
}
