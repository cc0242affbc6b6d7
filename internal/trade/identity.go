// Package trade defines the domain model for trade-dataset extractions:
// entity identities, canonical snapshots, partner records, and the
// pass-through data-quality metrics reported by the extraction layer.
package trade

import (
	"fmt"
	"regexp"
	"strings"
)

// Trade directions accepted in an identity.
const (
	TradeExport = "export"
	TradeImport = "import"
)

// periodPattern is the financial-year shape, e.g. "2024-25". Lexicographic
// order of this shape is chronological order.
var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// SeriesKey groups every period of one tracked dataset slice.
type SeriesKey struct {
	Feature    string `json:"feature"`
	TradeType  string `json:"trade_type"`
	EntityCode string `json:"entity_code"`
}

// String renders the series key as feature/trade_type/entity_code.
func (k SeriesKey) String() string {
	return k.Feature + "/" + k.TradeType + "/" + k.EntityCode
}

// Validate checks the series key fields.
func (k SeriesKey) Validate() error {
	if strings.TrimSpace(k.Feature) == "" {
		return fmt.Errorf("feature is empty")
	}
	if k.TradeType != TradeExport && k.TradeType != TradeImport {
		return fmt.Errorf("trade_type %q is not %q or %q", k.TradeType, TradeExport, TradeImport)
	}
	if strings.TrimSpace(k.EntityCode) == "" {
		return fmt.Errorf("entity_code is empty")
	}
	return nil
}

// Identity addresses one dataset slice at one period. Histories of different
// identities are fully independent.
type Identity struct {
	SeriesKey
	Period string `json:"period"`
}

// NewIdentity builds an identity from its four parts.
func NewIdentity(feature, tradeType, entityCode, period string) Identity {
	return Identity{
		SeriesKey: SeriesKey{Feature: feature, TradeType: tradeType, EntityCode: entityCode},
		Period:    period,
	}
}

// String renders the identity as feature/trade_type/entity_code@period.
func (id Identity) String() string {
	return id.SeriesKey.String() + "@" + id.Period
}

// Validate checks all four identity parts.
func (id Identity) Validate() error {
	if err := id.SeriesKey.Validate(); err != nil {
		return err
	}
	if !periodPattern.MatchString(id.Period) {
		return fmt.Errorf("period %q does not match YYYY-YY", id.Period)
	}
	return nil
}

// Equal reports whether two identities address the same slice and period.
func (id Identity) Equal(other Identity) bool {
	return id.Feature == other.Feature &&
		id.TradeType == other.TradeType &&
		id.EntityCode == other.EntityCode &&
		id.Period == other.Period
}
