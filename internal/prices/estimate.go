package prices

import (
	"math"
	"strconv"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Valuation multipliers: the share of the graded-reference premium over raw
// that a DCM grade is assumed to command, by grade band. Empirical
// constants; tune, don't re-derive.
var premiumBands = []struct {
	minGrade   float64
	multiplier float64
}{
	{9.5, 0.70},
	{9, 0.65},
	{8, 0.55},
	{7, 0.45},
	{0, 0.35},
}

const (
	// noGradedMultiple scales raw when no graded comparable exists at all.
	noGradedMultiple = 3.0
	// noRawDiscount is applied to the graded reference when no raw price
	// exists: graded comparables are assumed inflated relative to what a
	// DCM grade would command while the market matures.
	noRawDiscount = 0.70
)

// EstimateValue derives an estimated market value for a DCM grade from
// normalized prices. It never fails: insufficient input yields nil, which
// callers must treat as "not estimable", not as zero.
func EstimateValue(prices *model.NormalizedPrices, grade float64) *float64 {
	if prices == nil {
		return nil
	}

	reference := referencePrice(prices, grade)
	raw := prices.Raw

	switch {
	case reference == nil && raw != nil:
		return round2(*raw * noGradedMultiple)
	case reference != nil && raw == nil:
		return round2(*reference * noRawDiscount)
	case reference == nil && raw == nil:
		return nil
	}

	multiplier := premiumMultiplier(grade)
	return round2(*raw + (*reference-*raw)*multiplier)
}

// referencePrice looks up the PSA comparable for a grade: the
// nearest-whole-grade bucket first, then the 9.5 half-grade bucket for
// grades of 9 and above.
func referencePrice(prices *model.NormalizedPrices, grade float64) *float64 {
	rounded := strconv.Itoa(int(math.Round(grade)))
	if p, ok := prices.PSA[rounded]; ok && p > 0 {
		return &p
	}
	if grade >= 9 {
		if p, ok := prices.PSA["9.5"]; ok && p > 0 {
			return &p
		}
	}
	return nil
}

func premiumMultiplier(grade float64) float64 {
	for _, band := range premiumBands {
		if grade >= band.minGrade {
			return band.multiplier
		}
	}
	return premiumBands[len(premiumBands)-1].multiplier
}

func round2(v float64) *float64 {
	r := math.Round(v*100) / 100
	return &r
}
