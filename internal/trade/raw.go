package trade

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawRecord is the uncleaned extraction payload as the scraping layer emits
// it: loose numeric encodings, possibly missing fields, partner names not yet
// normalized. A nil Partners slice means the collection was absent from the
// payload; an empty slice is a valid empty extraction.
type RawRecord struct {
	Feature    string          `json:"feature"`
	TradeType  string          `json:"trade_type"`
	EntityCode string          `json:"entity_code"`
	Period     string          `json:"period"`
	Commodity  Commodity       `json:"commodity"`
	Partners   []RawPartner    `json:"partners"`
	Totals     *RawTotals      `json:"totals,omitempty"`
	Quality    *QualityMetrics `json:"quality,omitempty"`
}

// Identity assembles the record's embedded identity.
func (r *RawRecord) Identity() Identity {
	return NewIdentity(r.Feature, r.TradeType, r.EntityCode, r.Period)
}

// RawPartner is one partner row before normalization.
type RawPartner struct {
	SNo  int     `json:"sno,omitempty"`
	Name string  `json:"name"`
	USD  RawAxis `json:"usd"`
	Qty  RawAxis `json:"qty"`
}

// RawAxis mirrors ValueAxis with loose value decoding.
type RawAxis struct {
	Prev   RawValue `json:"prev"`
	Curr   RawValue `json:"curr"`
	Growth RawValue `json:"growth"`
}

// RawTotals mirrors Totals with loose value decoding.
type RawTotals struct {
	Total    RawPartnerValues `json:"total"`
	Reporter RawPartnerValues `json:"reporter"`
	SharePct RawAxis          `json:"share_pct"`
}

// RawPartnerValues is the value block of an aggregate row.
type RawPartnerValues struct {
	USD RawAxis `json:"usd"`
	Qty RawAxis `json:"qty"`
}

// RawValue decodes the source's loose numeric encodings: JSON numbers,
// comma-grouped strings, and the absent markers "", "-", "NA". Unparseable
// text decodes to missing rather than failing the whole record, since
// partial data inside a valid snapshot is not an error.
type RawValue struct {
	Val *float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		v.Val = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Val = parseLooseNumber(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		v.Val = nil
		return nil
	}
	v.Val = &f
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if v.Val == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*v.Val)
}

// parseLooseNumber cleans the string encodings seen in scraped tables.
func parseLooseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "-", "--", "NA", "N.A.", "N/A":
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
