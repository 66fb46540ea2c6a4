package prices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// pricingServer serves both the search and detail endpoints from static
// fixtures keyed by product id.
func pricingServer(t *testing.T, search []map[string]any, details map[string]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			writeJSON(t, w, map[string]any{"status": "success", "products": search})
		case "/product":
			id := r.URL.Query().Get("id")
			detail, ok := details[id]
			if !ok {
				writeJSON(t, w, map[string]any{"status": "error"})
				return
			}
			writeJSON(t, w, detail)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSearchCardPricesBestMatch(t *testing.T) {
	search := []map[string]any{
		{"id": "100", "product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter"},
		{"id": "200", "product-name": "Elsa - Snow Queen #1 [Foil]", "console-name": "Lorcana First Chapter"},
	}
	details := map[string]map[string]any{
		"100": {
			"status": "success", "id": "100",
			"product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter",
			"loose-price": 500, "manual-only-price": 15000,
		},
	}

	server := pricingServer(t, search, details)
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(context.Background(), model.SearchAttributes{
		CardName:        "Elsa - Snow Queen",
		CollectorNumber: "#001/204",
		SetName:         "The First Chapter",
	})
	if err != nil {
		t.Fatalf("SearchCardPrices: %v", err)
	}

	if result.QueryUsed != "Elsa - Snow Queen #1 First Chapter" {
		t.Errorf("QueryUsed = %q", result.QueryUsed)
	}
	if result.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %s, want high", result.Confidence)
	}
	if result.Prices == nil {
		t.Fatal("expected prices")
	}
	if result.Prices.ProductID != "100" {
		t.Errorf("ProductID = %s, want 100 (non-foil preferred)", result.Prices.ProductID)
	}
	if result.Prices.Raw == nil || *result.Prices.Raw != 5.00 {
		t.Errorf("Raw = %v, want 5.00", result.Prices.Raw)
	}
	if got := result.Prices.PSA["10"]; got != 150.00 {
		t.Errorf("PSA[10] = %v, want 150.00", got)
	}
	if result.Prices.IsFallback {
		t.Error("direct best match must not be flagged as fallback")
	}
}

func TestSearchCardPricesFallbackToPricedMatch(t *testing.T) {
	// The foil printing scores higher but carries no prices; the plain
	// printing has prices and should be returned, flagged as a fallback.
	search := []map[string]any{
		{"id": "foil", "product-name": "Elsa - Snow Queen #1 [Foil]", "console-name": "Lorcana First Chapter"},
		{"id": "plain", "product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter"},
	}
	details := map[string]map[string]any{
		"foil": {
			"status": "success", "id": "foil",
			"product-name": "Elsa - Snow Queen #1 [Foil]", "console-name": "Lorcana First Chapter",
		},
		"plain": {
			"status": "success", "id": "plain",
			"product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter",
			"loose-price": 1000,
		},
	}

	server := pricingServer(t, search, details)
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(context.Background(), model.SearchAttributes{
		CardName:        "Elsa - Snow Queen",
		CollectorNumber: "1",
		IsFoil:          true,
	})
	if err != nil {
		t.Fatalf("SearchCardPrices: %v", err)
	}

	if result.Prices == nil || result.Prices.ProductID != "plain" {
		t.Fatalf("expected prices from the plain printing, got %+v", result.Prices)
	}
	if !result.Prices.IsFallback {
		t.Error("expected fallback flag")
	}
	if result.Prices.MatchedProductName != "Elsa - Snow Queen #1 [Foil]" {
		t.Errorf("MatchedProductName = %q", result.Prices.MatchedProductName)
	}
	if result.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %s, want low for fallback", result.Confidence)
	}
}

func TestSearchCardPricesAbortsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			writeJSON(t, w, map[string]any{
				"status": "success",
				"products": []map[string]any{
					{"id": "100", "product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter"},
				},
			})
		case "/product":
			cancel()
			<-r.Context().Done()
		}
	}))
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(ctx, model.SearchAttributes{
		CardName:        "Elsa - Snow Queen",
		CollectorNumber: "1",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result != nil {
		t.Errorf("cancelled lookup must not fabricate a result, got %+v", result)
	}
}

func TestSearchCardPricesIgnoresUnconfirmedCandidatesForFallback(t *testing.T) {
	// The foil printing scores higher but the vendor has no detail record
	// for it; its name must not surface as fallback provenance.
	search := []map[string]any{
		{"id": "foil", "product-name": "Elsa - Snow Queen #1 [Foil]", "console-name": "Lorcana First Chapter"},
		{"id": "plain", "product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter"},
	}
	details := map[string]map[string]any{
		"plain": {
			"status": "success", "id": "plain",
			"product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter",
			"loose-price": 1000,
		},
	}

	server := pricingServer(t, search, details)
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(context.Background(), model.SearchAttributes{
		CardName:        "Elsa - Snow Queen",
		CollectorNumber: "1",
		IsFoil:          true,
	})
	if err != nil {
		t.Fatalf("SearchCardPrices: %v", err)
	}

	if result.Prices == nil || result.Prices.ProductID != "plain" {
		t.Fatalf("expected prices from the plain printing, got %+v", result.Prices)
	}
	if result.Prices.IsFallback || result.Prices.MatchedProductName != "" {
		t.Errorf("unconfirmed candidate leaked into fallback provenance: %+v", result.Prices)
	}
	if result.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %s, want high (own score, no fallback)", result.Confidence)
	}
}

func TestSearchCardPricesAllPriceless(t *testing.T) {
	search := []map[string]any{
		{"id": "300", "product-name": "Bruni - Fire Salamander #212", "console-name": "Lorcana Rise of the Floodborn"},
	}
	details := map[string]map[string]any{
		"300": {
			"status": "success", "id": "300",
			"product-name": "Bruni - Fire Salamander #212", "console-name": "Lorcana Rise of the Floodborn",
		},
	}

	server := pricingServer(t, search, details)
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(context.Background(), model.SearchAttributes{
		CardName:        "Bruni - Fire Salamander",
		CollectorNumber: "212",
	})
	if err != nil {
		t.Fatalf("SearchCardPrices: %v", err)
	}

	if result.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", result.Confidence)
	}
	if result.Prices == nil {
		t.Fatal("priceless match must still report identity")
	}
	if result.Prices.ProductID != "300" || result.Prices.SalesVolume != "0" {
		t.Errorf("identity = %s volume = %s", result.Prices.ProductID, result.Prices.SalesVolume)
	}
	if result.Prices.HasUsablePrices() {
		t.Error("priceless result must not report usable prices")
	}
}

func TestSearchCardPricesNoSurvivingCandidates(t *testing.T) {
	search := []map[string]any{
		{"id": "1", "product-name": "Mickey Mouse - Brave Little Tailor #12", "console-name": "Lorcana First Chapter"},
	}

	server := pricingServer(t, search, nil)
	defer server.Close()
	c := newTestClient(server.URL)

	result, err := c.SearchCardPrices(context.Background(), model.SearchAttributes{
		CardName: "Elsa - Snow Queen",
	})
	if err != nil {
		t.Fatalf("no surviving candidates must not be an error, got %v", err)
	}
	if result.Confidence != model.ConfidenceNone {
		t.Errorf("Confidence = %s, want none", result.Confidence)
	}
	if result.Prices != nil {
		t.Errorf("Prices = %+v, want nil", result.Prices)
	}
}

func TestPricesForProductID(t *testing.T) {
	details := map[string]map[string]any{
		"777": {
			"status": "success", "id": "777",
			"product-name": "Stitch - Rock Star #30", "console-name": "Lorcana First Chapter",
			"loose-price": 2500,
		},
	}

	server := pricingServer(t, nil, details)
	defer server.Close()
	c := newTestClient(server.URL)

	prices, err := c.PricesForProductID(context.Background(), "777")
	if err != nil {
		t.Fatalf("PricesForProductID: %v", err)
	}
	if prices == nil || prices.Raw == nil || *prices.Raw != 25.00 {
		t.Fatalf("prices = %+v, want Raw 25.00", prices)
	}

	missing, err := c.PricesForProductID(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Errorf("unknown id: got (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestAvailableVariants(t *testing.T) {
	search := []map[string]any{
		{"id": "1", "product-name": "Elsa - Snow Queen #1", "console-name": "Lorcana First Chapter", "loose-price": 500},
		{"id": "2", "product-name": "Elsa - Snow Queen #1 [Foil]", "console-name": "Lorcana First Chapter"},
		{"id": "3", "product-name": "Elsa - Snow Queen [Enchanted] #207", "console-name": "Lorcana First Chapter", "graded-price": 90000},
		{"id": "4", "product-name": "Lantern #168", "console-name": "Lorcana First Chapter", "loose-price": 100},
	}

	server := pricingServer(t, search, nil)
	defer server.Close()
	c := newTestClient(server.URL)

	variants, err := c.AvailableVariants(context.Background(), model.SearchAttributes{
		CardName: "Elsa - Snow Queen",
		Variant:  "Enchanted",
		IsFoil:   true,
	})
	if err != nil {
		t.Fatalf("AvailableVariants: %v", err)
	}

	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3 (name filter)", len(variants))
	}
	// Priced variants sort first, alphabetical within each group.
	if !variants[0].HasPrice || !variants[1].HasPrice || variants[2].HasPrice {
		t.Errorf("price ordering wrong: %+v", variants)
	}
	if variants[0].Name > variants[1].Name {
		t.Errorf("priced variants not alphabetical: %q before %q", variants[0].Name, variants[1].Name)
	}
}

func TestQueryForSelection(t *testing.T) {
	if got := QueryForSelection("Elsa - Snow Queen #1"); got != "Selected: Elsa - Snow Queen #1" {
		t.Errorf("QueryForSelection = %q", got)
	}
}
