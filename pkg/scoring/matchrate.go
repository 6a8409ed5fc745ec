package scoring

// Match-rate band boundaries. Auto-translated content must never be
// mistaken for a genuine translation-memory match downstream, so fuzzy
// repairs cap at 99 and new translations at 85.
const (
	fuzzyRepairFloor     = 75.0
	fuzzyRepairCeil      = 99.0
	newTranslationFactor = 0.85
	newTranslationCeil   = 85.0
)

// MatchRateEquivalent maps a weighted quality score into the TMS-native
// match-rate bands. Within each band the result is non-decreasing in the
// score.
func MatchRateEquivalent(weightedScore float64, matchType MatchType) float64 {
	switch matchType {
	case MatchTypeExact:
		// Exact TM matches report 100 regardless of the quality score.
		return 100.0
	case MatchTypeFuzzyRepair:
		return clip(weightedScore, fuzzyRepairFloor, fuzzyRepairCeil)
	default:
		return clip(weightedScore*newTranslationFactor, 0.0, newTranslationCeil)
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
