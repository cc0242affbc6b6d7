// Package checksum computes the deterministic content hash of a canonical
// snapshot. Length-prefixed field encoding avoids delimiter ambiguity, sorted
// partner keys make the digest insensitive to input ordering, and a missing
// value encodes differently from zero. Equality and corruption checking only;
// not a security primitive.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/normalize"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// Prefix identifies the digest algorithm in stored checksums.
const Prefix = "sha256:"

// Sum computes the canonical content hash of a snapshot.
// Format: sha256 over ${len}:${value} tokens; missing values encode as the
// empty token ("0:"), distinct from zero ("1:0").
func Sum(s *trade.Snapshot) string {
	var builder strings.Builder

	writeField(&builder, s.Identity.Feature)
	writeField(&builder, s.Identity.TradeType)
	writeField(&builder, s.Identity.EntityCode)
	writeField(&builder, s.Identity.Period)
	writeField(&builder, s.Commodity.Code)
	writeField(&builder, s.Commodity.Description)
	writeField(&builder, s.Commodity.Unit)

	for _, key := range s.PartnerKeys() {
		rec := s.Partners[key]
		writeField(&builder, "p")
		writeField(&builder, key)
		writeRecord(&builder, rec)
	}

	writeField(&builder, "t")
	writeRecord(&builder, s.Totals.Total)
	writeRecord(&builder, s.Totals.Reporter)
	writeValue(&builder, s.Totals.SharePct.Prev)
	writeValue(&builder, s.Totals.SharePct.Curr)
	writeValue(&builder, s.Totals.SharePct.Growth)

	hash := sha256.Sum256([]byte(builder.String()))
	return Prefix + hex.EncodeToString(hash[:])
}

// Matches reports whether a stored checksum equals the snapshot's digest.
func Matches(stored string, s *trade.Snapshot) bool {
	return stored == Sum(s)
}

func writeRecord(builder *strings.Builder, rec trade.PartnerRecord) {
	for _, name := range trade.TrackedFields {
		writeValue(builder, rec.Field(name))
	}
}

func writeValue(builder *strings.Builder, v *float64) {
	if v == nil {
		writeField(builder, "")
		return
	}
	writeField(builder, normalize.FormatFixed(*v))
}

func writeField(builder *strings.Builder, field string) {
	builder.WriteString(strconv.Itoa(len(field)))
	builder.WriteByte(':')
	builder.WriteString(field)
}
