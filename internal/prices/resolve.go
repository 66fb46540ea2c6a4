package prices

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Confidence thresholds on the winning candidate's match score.
const (
	confidenceHighScore   = 40
	confidenceMediumScore = 20
)

// variantSearchLimit widens variant listings beyond the default search cap
// so alternate printings are not truncated away.
const variantSearchLimit = 25

type scoredCandidate struct {
	product model.CandidateProduct
	score   int
}

// SearchCardPrices resolves a card's attributes to the best-matching vendor
// product and returns its normalized prices. Candidates are scored, then
// visited best-first until one has usable prices; an exact match that the
// vendor simply has no prices for is remembered so a weaker priced match can
// be flagged as a fallback.
func (c *Client) SearchCardPrices(ctx context.Context, attrs model.SearchAttributes) (*model.LookupResult, error) {
	query := BuildQuery(attrs)

	products, err := c.SearchProducts(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	candidates := rankCandidates(products, attrs)
	c.log.Debug("scored candidates", "query", query, "count", len(candidates))

	if len(candidates) == 0 {
		return &model.LookupResult{
			Confidence: model.ConfidenceNone,
			QueryUsed:  query,
		}, nil
	}

	var bestPriceless *scoredCandidate
	for i := range candidates {
		cand := candidates[i]

		detail, err := c.FetchProduct(ctx, cand.product.ID)
		if err != nil {
			return nil, err
		}
		if detail == nil {
			// No detail record at all; never offered as fallback provenance
			// since the vendor did not confirm the product exists.
			continue
		}

		normalized := Normalize(*detail)
		if normalized.HasUsablePrices() {
			isFallback := bestPriceless != nil && cand.score < bestPriceless.score
			if isFallback {
				normalized.IsFallback = true
				normalized.MatchedProductName = bestPriceless.product.Name
				c.log.Debug("using fallback match",
					"wanted", bestPriceless.product.Name, "got", detail.Name)
			}
			return &model.LookupResult{
				Prices:     normalized,
				Confidence: scoreConfidence(cand.score, isFallback),
				QueryUsed:  query,
			}, nil
		}

		if bestPriceless == nil {
			bestPriceless = &candidates[i]
		}
	}

	// Every candidate resolved without usable prices. Report the best match's
	// identity so callers can still display what was found.
	best := candidates[0]
	return &model.LookupResult{
		Prices: &model.NormalizedPrices{
			PSA:         map[string]float64{},
			BGS:         map[string]float64{},
			SGC:         map[string]float64{},
			CGC:         map[string]float64{},
			ProductID:   best.product.ID,
			ProductName: best.product.Name,
			GroupName:   best.product.GroupName,
			SalesVolume: "0",
		},
		Confidence: model.ConfidenceLow,
		QueryUsed:  query,
	}, nil
}

// PricesForProductID fetches and normalizes prices for a known vendor id,
// bypassing search and scoring. Returns (nil, nil) when the vendor has no
// record for the id.
func (c *Client) PricesForProductID(ctx context.Context, productID string) (*model.NormalizedPrices, error) {
	detail, err := c.FetchProduct(ctx, productID)
	if err != nil || detail == nil {
		return nil, err
	}
	return Normalize(*detail), nil
}

// AvailableVariants lists alternate printings of a card. The search drops the
// variant and foil attributes so all printings surface, then keeps candidates
// sharing at least one significant word with the card name.
func (c *Client) AvailableVariants(ctx context.Context, attrs model.SearchAttributes) ([]model.VariantOption, error) {
	base := attrs
	base.Variant = ""
	base.IsFoil = false
	query := BuildQuery(base)

	products, err := c.SearchProducts(ctx, query, variantSearchLimit)
	if err != nil {
		return nil, err
	}

	words := significantWords(attrs.CardName)
	matched := lo.Filter(products, func(p model.CandidateProduct, _ int) bool {
		name := strings.ToLower(p.Name)
		return lo.SomeBy(words, func(w string) bool {
			return strings.Contains(name, w)
		})
	})

	variants := lo.Map(matched, func(p model.CandidateProduct, _ int) model.VariantOption {
		return model.VariantOption{
			ID:        p.ID,
			Name:      p.Name,
			GroupName: p.GroupName,
			HasPrice:  p.HasSearchPrices(),
		}
	})

	// Priced printings first, then alphabetical.
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].HasPrice != variants[j].HasPrice {
			return variants[i].HasPrice
		}
		return variants[i].Name < variants[j].Name
	})

	return variants, nil
}

// rankCandidates scores products against the requested attributes, drops
// disqualified ones, and orders the rest best-first.
func rankCandidates(products []model.CandidateProduct, attrs model.SearchAttributes) []scoredCandidate {
	var candidates []scoredCandidate
	for _, p := range products {
		score := ScoreCandidate(p, attrs)
		if score < 0 {
			continue
		}
		candidates = append(candidates, scoredCandidate{product: p, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates
}

func scoreConfidence(score int, isFallback bool) model.Confidence {
	switch {
	case !isFallback && score >= confidenceHighScore:
		return model.ConfidenceHigh
	case !isFallback && score >= confidenceMediumScore:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func significantWords(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	return lo.Filter(fields, func(w string, _ int) bool {
		return len(w) > 2
	})
}

// QueryForSelection labels a lookup that bypassed search with an explicit
// product choice.
func QueryForSelection(productName string) string {
	return fmt.Sprintf("Selected: %s", productName)
}
