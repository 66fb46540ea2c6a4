package prices

import (
	"log/slog"
	"strings"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Scoring weights. Empirically tuned against live vendor search results;
// treat as tunable parameters, not derived values.
const (
	scoreNameExact        = 50
	scoreNamePerWord      = 10
	scoreNumberMatch      = 40
	scoreSetMatch         = 25
	scoreSetPerWord       = 5
	scoreFoilMatch        = 20
	scoreFoilMissing      = -15
	scoreFoilUnwanted     = -10
	scoreVariantMatch     = 15
	scoreVariantMissing   = -5
	scoreYearMatch        = 10
	nameCoverageThreshold = 0.8

	// Disqualified is returned by ScoreCandidate when a mandatory signal
	// fails; disqualified candidates are dropped, not penalized.
	Disqualified = -1
)

// ruleResult is the outcome of a single scoring rule.
type ruleResult struct {
	delta      int
	disqualify bool
	reason     string
}

// scoreRule evaluates one named signal against a candidate. Rules run in
// order and their deltas fold into the total; any disqualifying rule ends
// scoring immediately.
type scoreRule struct {
	name string
	eval func(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult
}

var scoreRules = []scoreRule{
	{name: "card-name", eval: ruleCardName},
	{name: "collector-number", eval: ruleCollectorNumber},
	{name: "set-name", eval: ruleSetName},
	{name: "foil", eval: ruleFoil},
	{name: "variant", eval: ruleVariant},
	{name: "year", eval: ruleYear},
}

// ScoreCandidate scores a candidate against the search attributes, returning
// Disqualified when a mandatory signal (card name coverage, collector
// number) rules the candidate out entirely.
func ScoreCandidate(c model.CandidateProduct, attrs model.SearchAttributes) int {
	score := 0
	for _, rule := range scoreRules {
		res := rule.eval(c, attrs)
		if res.disqualify {
			slog.Debug("candidate disqualified",
				"component", "lorcana-pricing",
				"rule", rule.name,
				"reason", res.reason,
				"product", c.Name)
			return Disqualified
		}
		score += res.delta
	}
	return score
}

// ruleCardName is a mandatory signal. An exact name at the head of the
// product name earns the full bonus; otherwise at least 80% of the
// significant words must appear or the candidate is dropped: a weaker
// name overlap is evidence of a different card, not a worse match.
func ruleCardName(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	if attrs.CardName == "" {
		return ruleResult{}
	}

	productName := strings.ToLower(c.Name)
	cardName := strings.ToLower(strings.TrimSpace(attrs.CardName))

	if strings.HasPrefix(productName, cardName+" ") ||
		strings.HasPrefix(productName, cardName+"#") ||
		productName == cardName {
		return ruleResult{delta: scoreNameExact}
	}

	var words, matched int
	for _, w := range strings.Fields(cardName) {
		if len(w) <= 1 {
			continue
		}
		words++
		if strings.Contains(productName, w) {
			matched++
		}
	}

	coverage := 0.0
	if words > 0 {
		coverage = float64(matched) / float64(words)
	}
	if coverage < nameCoverageThreshold {
		return ruleResult{disqualify: true, reason: "card name mismatch"}
	}
	return ruleResult{delta: matched * scoreNamePerWord}
}

// ruleCollectorNumber is a mandatory signal when the number is supplied:
// it is the most precise identifier available, so a candidate that does not
// carry it in any recognized form is the wrong card outright.
func ruleCollectorNumber(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	if attrs.CollectorNumber == "" {
		return ruleResult{}
	}

	productName := strings.ToLower(c.Name)

	padded := strings.TrimPrefix(attrs.CollectorNumber, "#")
	if i := strings.Index(padded, "/"); i >= 0 {
		padded = padded[:i]
	}
	padded = strings.ToLower(strings.TrimSpace(padded))
	stripped := leadingZeros.ReplaceAllString(padded, "$1")

	for _, n := range []string{padded, stripped} {
		if strings.Contains(productName, "#"+n) ||
			strings.Contains(productName, " "+n+"/") ||
			strings.Contains(productName, " "+n+" ") ||
			strings.HasSuffix(productName, " "+n) {
			return ruleResult{delta: scoreNumberMatch}
		}
	}
	return ruleResult{disqualify: true, reason: "collector number mismatch"}
}

// ruleSetName is a soft signal: full containment in the product family
// earns the set bonus, otherwise long words earn partial credit.
func ruleSetName(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	if attrs.SetName == "" {
		return ruleResult{}
	}

	groupName := strings.ToLower(c.GroupName)
	set := strings.ToLower(CleanSetName(attrs.SetName))

	if strings.Contains(groupName, set) ||
		strings.Contains(groupName, strings.ReplaceAll(set, " ", "")) {
		return ruleResult{delta: scoreSetMatch}
	}

	matched := 0
	for _, w := range strings.Fields(set) {
		if len(w) > 3 && strings.Contains(groupName, w) {
			matched++
		}
	}
	return ruleResult{delta: matched * scoreSetPerWord}
}

// ruleFoil is a soft signal in both directions: foil and non-foil printings
// of the same card price very differently.
func ruleFoil(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	productName := strings.ToLower(c.Name)
	hasFoil := strings.Contains(productName, "[foil]") || strings.Contains(productName, "foil")

	if attrs.IsFoil {
		if hasFoil {
			return ruleResult{delta: scoreFoilMatch}
		}
		return ruleResult{delta: scoreFoilMissing}
	}
	if hasFoil {
		return ruleResult{delta: scoreFoilUnwanted}
	}
	return ruleResult{}
}

// ruleVariant is a soft signal, skipped when the resolved variant is Foil
// since foil is already scored by ruleFoil.
func ruleVariant(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	variant := NormalizeVariant(attrs.Variant, false)
	if variant == "" || variant == "Foil" {
		return ruleResult{}
	}

	productName := strings.ToLower(c.Name)
	v := strings.ToLower(variant)
	if strings.Contains(productName, "["+v+"]") || strings.Contains(productName, v) {
		return ruleResult{delta: scoreVariantMatch}
	}
	return ruleResult{delta: scoreVariantMissing}
}

// ruleYear is a soft signal matching a four-digit year prefix against either
// the product family or the product name.
func ruleYear(c model.CandidateProduct, attrs model.SearchAttributes) ruleResult {
	if attrs.Year == "" {
		return ruleResult{}
	}

	year := attrs.Year
	if i := strings.Index(year, "-"); i >= 0 {
		year = year[:i]
	}
	if strings.Contains(strings.ToLower(c.GroupName), year) ||
		strings.Contains(strings.ToLower(c.Name), year) {
		return ruleResult{delta: scoreYearMatch}
	}
	return ruleResult{}
}
