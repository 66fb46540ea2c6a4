// Package pricing wraps card-price resolution with persistent caching and
// grade-based value estimation.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dcmgrade/lorcanaprice/internal/cache"
	"github.com/dcmgrade/lorcanaprice/internal/model"
	"github.com/dcmgrade/lorcanaprice/internal/prices"
)

// DefaultTTL keeps prices for a week; the vendor's data does not move
// faster than that for this product family.
const DefaultTTL = 7 * 24 * time.Hour

var ErrNoProduct = errors.New("no product found for id")

// Request is one pricing lookup.
type Request struct {
	Attributes model.SearchAttributes

	// DCMGrade, when positive, asks for an estimated value at that grade.
	DCMGrade float64

	// SelectedProductID bypasses search and prices a known vendor product.
	SelectedProductID string

	ForceRefresh    bool
	IncludeVariants bool
}

// Response is a lookup result plus cache provenance and optional variants.
type Response struct {
	model.LookupResult

	Cached       bool                  `json:"cached"`
	CacheAgeDays *float64              `json:"cacheAgeDays,omitempty"`
	Variants     []model.VariantOption `json:"variants,omitempty"`
}

// Service resolves card prices through a persistent cache.
type Service struct {
	client *prices.Client
	cache  *cache.Cache
	ttl    time.Duration
	log    *slog.Logger
}

func NewService(client *prices.Client, store *cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		client: client,
		cache:  store,
		ttl:    ttl,
		log:    slog.Default().With("component", "pricing-service"),
	}
}

// Available reports whether the underlying vendor client has a credential.
func (s *Service) Available() bool {
	return s.client.Available()
}

// Lookup prices a card. Cache hits are re-estimated against the requested
// grade so a stale estimate never shadows fresh grade input.
func (s *Service) Lookup(ctx context.Context, req Request) (*Response, error) {
	var (
		resp *Response
		err  error
	)
	if req.SelectedProductID != "" {
		resp, err = s.lookupByID(ctx, req)
	} else {
		resp, err = s.lookupBySearch(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if req.DCMGrade > 0 && resp.Prices != nil {
		resp.Prices.EstimatedValue = prices.EstimateValue(resp.Prices, req.DCMGrade)
	}

	if req.IncludeVariants {
		variants, err := s.client.AvailableVariants(ctx, req.Attributes)
		if err != nil {
			s.log.Warn("variant listing failed", "error", err)
		} else {
			resp.Variants = variants
		}
	}

	return resp, nil
}

func (s *Service) lookupByID(ctx context.Context, req Request) (*Response, error) {
	key := cache.ProductKey(req.SelectedProductID)

	if !req.ForceRefresh {
		if resp, ok := s.fromCache(key); ok {
			return resp, nil
		}
	}

	normalized, err := s.client.PricesForProductID(ctx, req.SelectedProductID)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProduct, req.SelectedProductID)
	}

	result := model.LookupResult{
		Prices:     normalized,
		Confidence: model.ConfidenceHigh,
		QueryUsed:  prices.QueryForSelection(normalized.ProductName),
	}
	s.store(key, result)
	return &Response{LookupResult: result}, nil
}

func (s *Service) lookupBySearch(ctx context.Context, req Request) (*Response, error) {
	key := cache.LookupKey(req.Attributes)

	if req.ForceRefresh {
		s.client.InvalidateQueries()
	} else if resp, ok := s.fromCache(key); ok {
		s.log.Debug("cache hit", "card", req.Attributes.CardName)
		return resp, nil
	}

	result, err := s.client.SearchCardPrices(ctx, req.Attributes)
	if err != nil {
		return nil, err
	}

	if result.Prices != nil {
		s.store(key, *result)
	}
	return &Response{LookupResult: *result}, nil
}

func (s *Service) fromCache(key string) (*Response, bool) {
	var cached model.LookupResult
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	resp := &Response{LookupResult: cached, Cached: true}
	if age, ok := s.cache.Age(key); ok {
		days := roundDays(age)
		resp.CacheAgeDays = &days
	}
	return resp, true
}

func (s *Service) store(key string, result model.LookupResult) {
	if err := s.cache.Put(key, result, s.ttl); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// roundDays renders a duration as days with one decimal.
func roundDays(d time.Duration) float64 {
	return math.Round(d.Hours()/24*10) / 10
}
