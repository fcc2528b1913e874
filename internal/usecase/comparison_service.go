package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Package-level compiled regex patterns for cache key normalization
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// ComparisonServiceConfig holds configuration for the comparison pipeline
type ComparisonServiceConfig struct {
	CacheTTL           time.Duration
	Matcher            MatcherConfig
	Normalizer         NormalizerConfig
	Calculator         CalculatorConfig
	EnableDebugLogging bool
}

// ComparisonService runs the full pipeline: match listings across sources,
// normalize the matched prices, derive comparable daily costs, and analyze.
type ComparisonService struct {
	cache              domain.CacheRepository
	matcher            *ProductMatcher
	normalizer         *PriceNormalizer
	calculator         *CostCalculator
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewComparisonService creates a comparison service with dependencies
func NewComparisonService(cache domain.CacheRepository, config ComparisonServiceConfig) *ComparisonService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	return &ComparisonService{
		cache:              cache,
		matcher:            NewProductMatcher(config.Matcher),
		normalizer:         NewPriceNormalizer(config.Normalizer),
		calculator:         NewCostCalculator(config.Calculator),
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Matcher exposes the underlying matcher for callers that revalidate
// cached matches
func (s *ComparisonService) Matcher() *ProductMatcher { return s.matcher }

// Normalizer exposes the underlying price normalizer
func (s *ComparisonService) Normalizer() *PriceNormalizer { return s.normalizer }

// Calculator exposes the underlying cost calculator
func (s *ComparisonService) Calculator() *CostCalculator { return s.calculator }

// CompareProduct resolves matching listings from both source pools and turns
// them into ranked daily costs. Zero matches is a valid outcome reported via
// warnings on the result, never an error.
// Flow: check cache -> match -> normalize -> cost -> analyze -> cache -> return
func (s *ComparisonService) CompareProduct(
	ctx context.Context,
	product *domain.ProductInfo,
	rakutenListings, amazonListings []domain.SourceListing,
) (*domain.ComparisonResult, error) {
	if product == nil || product.ID == "" || product.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheKey := s.generateCacheKey(product)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		cached.Source = "Cache"
		return cached, nil
	}

	matching := s.matcher.MatchProduct(*product, rakutenListings, amazonListings)

	var prices []domain.NormalizedPrice
	var costs []domain.CostPerDay
	for _, match := range matching.BestMatches {
		if match.Listing == nil {
			continue
		}
		price := s.normalizer.Normalize(*match.Listing, match.Source, product.ID)
		prices = append(prices, price)

		cost, err := s.calculator.CalculateCostPerDay(price, *product, nil)
		if err != nil {
			matching.Warnings = append(matching.Warnings,
				fmt.Sprintf("cost calculation skipped for %s/%s: %v", match.Source, match.ListingID, err))
			continue
		}
		costs = append(costs, *cost)
	}

	result := &domain.ComparisonResult{
		ProductID:   product.ID,
		Matching:    matching,
		Prices:      prices,
		Costs:       s.calculator.CompareCosts(costs),
		Analysis:    s.calculator.AnalyzeCostPerformance(costs),
		Source:      "Live",
		GeneratedAt: time.Now(),
	}

	// Only confident results are worth caching
	if len(matching.BestMatches) > 0 {
		if err := s.setInCache(ctx, cacheKey, result); err != nil && s.enableDebugLogging {
			log.Printf("[COMPARE] cache write failed for %s: %v", cacheKey, err)
		}
	}

	return result, nil
}

// generateCacheKey creates a normalized cache key for a product.
// Format: "comparison:{id}:{normalized_name}"
func (s *ComparisonService) generateCacheKey(product *domain.ProductInfo) string {
	return fmt.Sprintf("comparison:%s:%s",
		normalizeForCacheKey(product.ID), normalizeForCacheKey(product.Name))
}

// normalizeForCacheKey lowercases, strips special characters and collapses
// whitespace so equivalent product names share a key
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a comparison result. Cached values come back as
// generic JSON shapes, so they are re-marshaled into the typed result.
func (s *ComparisonService) getFromCache(ctx context.Context, key string) (*domain.ComparisonResult, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if result, ok := value.(*domain.ComparisonResult); ok {
		return result, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var result domain.ComparisonResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, domain.ErrCacheMiss
	}
	if result.ProductID == "" {
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}

func (s *ComparisonService) setInCache(ctx context.Context, key string, result *domain.ComparisonResult) error {
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}
