package diff

// Classify maps an aggregate percent change onto a drift level using
// half-open bins. BASELINE overrides the bins whenever isBaseline is set,
// whatever the numeric value. For a fixed denominator the mapping is
// monotonic in total_changes: adding a change never lowers the level.
func Classify(percentChange float64, isBaseline bool) DriftLevel {
	if isBaseline {
		return DriftBaseline
	}
	switch {
	case percentChange == 0:
		return DriftNoChange
	case percentChange < 5:
		return DriftMinimal
	case percentChange < 15:
		return DriftModerate
	case percentChange < 30:
		return DriftSignificant
	default:
		return DriftCritical
	}
}
