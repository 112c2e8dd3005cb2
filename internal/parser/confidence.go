package parser

import "math"

const (
	dateWeight          = 0.4
	keywordAmountWeight = 0.4
	looseAmountWeight   = 0.2
	unambiguousBonus    = 0.2

	// AmbiguousConfidence replaces any score of 0.7 or more when the text held
	// several distinct dates.
	AmbiguousConfidence = 0.65
	ambiguityFloor      = 0.7
)

// signals are the per-call facts the score is computed from.
type signals struct {
	hasDate         bool
	hasAmount       bool
	amountByKeyword bool
	dateCandidates  int
}

func score(s signals) float64 {
	c := 0.0
	if s.hasDate {
		c += dateWeight
	}
	if s.hasAmount {
		if s.amountByKeyword {
			c += keywordAmountWeight
		} else {
			// every amount candidate comes from a keyword today, so this
			// branch is not reached
			c += looseAmountWeight
		}
	}
	if s.hasDate && s.hasAmount && s.dateCandidates <= 1 {
		c += unambiguousBonus
	}

	c = math.Round(math.Min(c, 1.0)*100) / 100

	if s.dateCandidates > 1 && c >= ambiguityFloor {
		return AmbiguousConfidence
	}
	return c
}
