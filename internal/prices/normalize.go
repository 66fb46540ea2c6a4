package prices

import (
	"time"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Grading authorities recognized in normalized output.
const (
	authorityPSA = "psa"
	authorityBGS = "bgs"
	authoritySGC = "sgc"
	authorityCGC = "cgc"
)

type gradeTarget struct {
	authority string
	grade     string
}

// vendorGradeMap fixes the vendor's price-field → condition-ladder
// convention for this product family. The field names are vendor legacy
// (video-game conditions); the grade meanings are not guessable from them,
// so the table is kept as pure data rather than branching logic.
var vendorGradeMap = map[string][]gradeTarget{
	"cib-price":          {{authorityPSA, "7"}},
	"new-price":          {{authorityPSA, "8"}},
	"graded-price":       {{authorityPSA, "9"}, {authorityBGS, "9"}, {authoritySGC, "9"}, {authorityCGC, "9"}},
	"box-only-price":     {{authorityPSA, "9.5"}, {authorityBGS, "9.5"}},
	"manual-only-price":  {{authorityPSA, "10"}},
	"bgs-10-price":       {{authorityBGS, "10"}},
	"condition-17-price": {{authorityCGC, "10"}},
	"condition-18-price": {{authoritySGC, "10"}},
}

// rawPriceField is the vendor field carrying the ungraded price.
const rawPriceField = "loose-price"

// penniesToDollars converts an integer minor-unit amount to dollars.
// Zero maps to nil: the vendor emits 0 both for "no data" and omits the
// field entirely, so 0 must never surface as a real price.
func penniesToDollars(pennies int) *float64 {
	if pennies == 0 {
		return nil
	}
	d := float64(pennies) / 100
	return &d
}

// Normalize maps a vendor product onto the canonical authority/grade price
// shape. The result is immutable once built; EstimatedValue is left nil and
// populated by EstimateValue on request.
func Normalize(p model.CandidateProduct) *model.NormalizedPrices {
	n := &model.NormalizedPrices{
		Raw:         penniesToDollars(p.Prices[rawPriceField]),
		PSA:         map[string]float64{},
		BGS:         map[string]float64{},
		SGC:         map[string]float64{},
		CGC:         map[string]float64{},
		ProductID:   p.ID,
		ProductName: p.Name,
		GroupName:   p.GroupName,
		SalesVolume: p.SalesVolume,
		LastUpdated: time.Now().UTC(),
	}

	for field, targets := range vendorGradeMap {
		price := penniesToDollars(p.Prices[field])
		if price == nil {
			continue
		}
		for _, t := range targets {
			switch t.authority {
			case authorityPSA:
				n.PSA[t.grade] = *price
			case authorityBGS:
				n.BGS[t.grade] = *price
			case authoritySGC:
				n.SGC[t.grade] = *price
			case authorityCGC:
				n.CGC[t.grade] = *price
			}
		}
	}

	return n
}
