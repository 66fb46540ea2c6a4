package model

import "time"

// SearchAttributes describes the card we are pricing. CardName is the only
// required field; everything else narrows the vendor's fuzzy search.
type SearchAttributes struct {
	CardName        string `json:"cardName"`
	SetName         string `json:"setName,omitempty"`
	CollectorNumber string `json:"collectorNumber,omitempty"` // may carry "#" prefix, "/total" suffix, leading zeros
	Year            string `json:"year,omitempty"`
	IsFoil          bool   `json:"isFoil,omitempty"`
	Variant         string `json:"variant,omitempty"` // e.g. "Enchanted", "Promo", "Full Art"
}

// CandidateProduct is one fuzzy-search result from the price vendor.
// Prices holds the raw vendor price fields (integer pennies) keyed by the
// vendor's field names; absent fields are simply not present.
type CandidateProduct struct {
	ID          string
	Name        string // product-name: card title, collector number, bracketed variant markers
	GroupName   string // console-name: product family / set, e.g. "Lorcana First Chapter"
	SalesVolume string
	Prices      map[string]int
}

// HasSearchPrices reports whether the search-level price fields suggest the
// product carries any pricing data at all. Used for variant listings, where
// we do not fetch full detail per candidate.
func (c CandidateProduct) HasSearchPrices() bool {
	for _, k := range []string{"loose-price", "graded-price", "new-price", "manual-only-price"} {
		if c.Prices[k] > 0 {
			return true
		}
	}
	return false
}

// NormalizedPrices is the canonical price shape returned to callers.
// Grade maps hold dollars keyed by grade label ("7".."10", "9.5"); a missing
// key means the vendor reported no price at that grade. Raw and
// EstimatedValue are nil when unknown, never zero.
type NormalizedPrices struct {
	Raw            *float64           `json:"raw"`
	PSA            map[string]float64 `json:"psa"`
	BGS            map[string]float64 `json:"bgs"`
	SGC            map[string]float64 `json:"sgc"`
	CGC            map[string]float64 `json:"cgc"`
	EstimatedValue *float64           `json:"estimatedValue"`

	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	GroupName   string    `json:"groupName"`
	SalesVolume string    `json:"salesVolume,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`

	// Fallback provenance: set when the returned prices come from a
	// lower-scored candidate because the best text match had no pricing.
	IsFallback         bool   `json:"isFallback,omitempty"`
	MatchedProductName string `json:"matchedProductName,omitempty"`
}

// HasUsablePrices reports whether at least one of raw, PSA, or BGS carries a
// positive price. Candidates failing this are skipped during resolution.
func (n *NormalizedPrices) HasUsablePrices() bool {
	if n == nil {
		return false
	}
	if n.Raw != nil && *n.Raw > 0 {
		return true
	}
	for _, p := range n.PSA {
		if p > 0 {
			return true
		}
	}
	for _, p := range n.BGS {
		if p > 0 {
			return true
		}
	}
	return false
}

// Confidence grades how much the caller should trust a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// LookupResult is the outcome of a full search-and-resolve pass.
// Prices is nil when no candidate survived scoring.
type LookupResult struct {
	Prices     *NormalizedPrices `json:"prices"`
	Confidence Confidence        `json:"matchConfidence"`
	QueryUsed  string            `json:"queryUsed"`
}

// VariantOption is one product variant offered for a card name, for UI
// variant pickers.
type VariantOption struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"groupName"`
	HasPrice  bool   `json:"hasPrice"`
}
