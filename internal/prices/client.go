package prices

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

var (
	// ErrNotConfigured means no API credential is present. Never retried.
	ErrNotConfigured = errors.New("pricecharting API key not configured")
	// ErrTimeout means the vendor did not answer after all retry attempts.
	ErrTimeout = errors.New("pricecharting API timeout")
)

// familyMarker filters search results to the product family we price.
// A broad free-text search routinely returns unrelated families.
const familyMarker = "lorcana"

// Config holds transport settings for the vendor API client.
type Config struct {
	Token             string
	BaseURL           string        // override for tests; defaults to the live API
	AttemptTimeout    time.Duration // per HTTP attempt
	MaxRetries        int           // additional attempts after the first
	RequestsPerSecond float64
	SearchLimit       int // default result cap for searches
}

// DefaultConfig returns production settings for a given credential.
func DefaultConfig(token string) Config {
	return Config{
		Token:             token,
		BaseURL:           "https://www.pricecharting.com/api",
		AttemptTimeout:    15 * time.Second,
		MaxRetries:        2,
		RequestsPerSecond: 2,
		SearchLimit:       15,
	}
}

// Client talks to the vendor price API. Safe for concurrent use; each
// lookup is independent and nothing is cached beyond short-lived query
// deduplication.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	dedup   *cache.Cache
	log     *slog.Logger
}

// NewClient builds a client from config, filling zero values with defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig(cfg.Token)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = def.SearchLimit
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 5),
		dedup:   cache.New(5*time.Minute, 10*time.Minute),
		log:     slog.Default().With("component", "lorcana-pricing"),
	}
}

// Available reports whether a credential is configured.
func (c *Client) Available() bool {
	return c.cfg.Token != ""
}

// InvalidateQueries drops the short-lived query dedup cache so the next
// search hits the vendor again. Used by forced refreshes.
func (c *Client) InvalidateQueries() {
	c.dedup.Flush()
}

// SearchProducts runs a free-text search and returns candidates from the
// expected product family. A vendor "no data" status is an empty slice, not
// an error.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]model.CandidateProduct, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = c.cfg.SearchLimit
	}

	dedupKey := fmt.Sprintf("search|%s|%d", query, limit)
	if hit, found := c.dedup.Get(dedupKey); found {
		if products, ok := hit.([]model.CandidateProduct); ok {
			return products, nil
		}
	}

	c.log.Debug("searching", "query", query, "limit", limit)

	u := fmt.Sprintf("%s/products?t=%s&q=%s&limit=%d",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.Token), url.QueryEscape(query), limit)

	var envelope struct {
		Status   string           `json:"status"`
		Products []map[string]any `json:"products"`
	}
	if err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, fmt.Errorf("product search: %w", err)
	}

	if !strings.EqualFold(envelope.Status, "success") || len(envelope.Products) == 0 {
		c.log.Debug("no products found", "query", query)
		return nil, nil
	}

	var products []model.CandidateProduct
	for _, raw := range envelope.Products {
		p := candidateFrom(raw)
		if !strings.Contains(strings.ToLower(p.GroupName), familyMarker) {
			continue
		}
		products = append(products, p)
	}

	c.log.Debug("search results",
		"query", query, "matched", len(products), "total", len(envelope.Products))

	c.dedup.SetDefault(dedupKey, products)
	return products, nil
}

// FetchProduct fetches full price detail for a vendor product id. A vendor
// non-success status, or a non-transient HTTP failure on an otherwise valid
// lookup, is (nil, nil): "no detail record" is a routine outcome, distinct
// from a transport failure.
func (c *Client) FetchProduct(ctx context.Context, productID string) (*model.CandidateProduct, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}

	c.log.Debug("fetching product detail", "id", productID)

	u := fmt.Sprintf("%s/product?t=%s&id=%s",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.Token), url.QueryEscape(productID))

	var raw map[string]any
	if err := c.getJSON(ctx, u, &raw); err != nil {
		if errors.Is(err, ErrTimeout) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("product detail %s: %w", productID, err)
		}
		c.log.Debug("product detail unavailable", "id", productID, "error", err)
		return nil, nil
	}

	if !strings.EqualFold(fmt.Sprint(raw["status"]), "success") {
		c.log.Debug("product detail not found", "id", productID)
		return nil, nil
	}

	p := candidateFrom(raw)
	return &p, nil
}

// getJSON issues a GET with a per-attempt timeout and bounded retry with
// linear backoff. Transient vendor failures (timeouts, 429, 5xx) retry;
// anything else fails immediately.
func (c *Client) getJSON(ctx context.Context, u string, into any) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.log.Debug("retrying", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, retryable, err := c.attempt(ctx, u)
		if err == nil {
			if err := json.Unmarshal(body, into); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrTimeout, lastErr)
}

// attempt performs one HTTP GET. The second return reports whether the
// failure is transient and worth retrying.
func (c *Client) attempt(ctx context.Context, u string) ([]byte, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller's context ending is not a vendor failure; abort
		// rather than retrying against a dead context.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		// Per-attempt deadline and transport errors are retryable.
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	reader, err := decompressReader(resp)
	if err != nil {
		return nil, false, fmt.Errorf("creating reader: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode/100 == 2 {
		return body, false, nil
	}

	text := string(body)
	transient := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode/100 == 5 ||
		strings.Contains(text, "DeadlineExceeded") ||
		strings.Contains(text, "timeout")
	return nil, transient, fmt.Errorf("HTTP %d: %s", resp.StatusCode, text)
}

// decompressReader unwraps gzip or brotli response bodies.
func decompressReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// vendorPriceFields are the price keys we carry off the wire, in pennies.
var vendorPriceFields = []string{
	"loose-price",
	"cib-price",
	"new-price",
	"graded-price",
	"box-only-price",
	"manual-only-price",
	"bgs-10-price",
	"condition-17-price",
	"condition-18-price",
}

// candidateFrom converts a decoded vendor payload into a CandidateProduct.
// The vendor is loose with types: prices arrive as numbers or numeric
// strings, and nulls appear where fields should be absent.
func candidateFrom(m map[string]any) model.CandidateProduct {
	getInt := func(k string) int {
		v, ok := m[k]
		if !ok || v == nil {
			return 0
		}
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			var f float64
			if _, err := fmt.Sscanf(t, "%f", &f); err == nil {
				return int(f)
			}
		}
		return 0
	}
	getString := func(k string) string {
		if v, ok := m[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}

	prices := make(map[string]int)
	for _, field := range vendorPriceFields {
		if v := getInt(field); v != 0 {
			prices[field] = v
		}
	}

	return model.CandidateProduct{
		ID:          getString("id"),
		Name:        getString("product-name"),
		GroupName:   getString("console-name"),
		SalesVolume: getString("sales-volume"),
		Prices:      prices,
	}
}
