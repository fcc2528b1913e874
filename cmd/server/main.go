package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PriceLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	cacheRepo := buildCache(cfg)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	debug := cfg.Server.Environment == "development"

	comparisonService := usecase.NewComparisonService(cacheRepo, usecase.ComparisonServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Matcher: usecase.MatcherConfig{
			MinNameSimilarity:  cfg.Matching.MinNameSimilarity,
			MinConfidence:      cfg.Matching.MinConfidence,
			MediumConfidence:   cfg.Matching.MediumConfidence,
			CapacityTolerance:  cfg.Matching.CapacityTolerance,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging || debug,
		},
		Normalizer: usecase.NormalizerConfig{
			TaxRate:               cfg.Normalizer.TaxRate,
			TaxIncludedSources:    taxIncludedSources(cfg.Normalizer.TaxIncludedSources),
			DefaultShippingCost:   cfg.Normalizer.DefaultShippingCost,
			FreeShippingThreshold: cfg.Normalizer.FreeShippingThreshold,
			SubscriptionKeywords:  cfg.Normalizer.SubscriptionKeywords,
			CurrencyRates:         cfg.Normalizer.CurrencyRates,
			EnableDebugLogging:    debug,
		},
		Calculator: usecase.CalculatorConfig{
			QualityWeightFactor: cfg.Cost.QualityWeightFactor,
			EnableDebugLogging:  debug,
		},
		EnableDebugLogging: debug,
	})

	log.Printf("Matching: name>=%.2f confidence>=%.2f tolerance=±%.0f%%",
		cfg.Matching.MinNameSimilarity, cfg.Matching.MinConfidence, cfg.Matching.CapacityTolerance*100)
	log.Printf("Normalizer: tax=%.0f%% shipping=%.0f free>=%.0f",
		cfg.Normalizer.TaxRate*100, cfg.Normalizer.DefaultShippingCost, cfg.Normalizer.FreeShippingThreshold)

	handler := httpDelivery.NewHandler(comparisonService)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildCache selects the configured cache backend, falling back to memory
// when Redis is unreachable so the service can still serve traffic
func buildCache(cfg *config.Config) domain.CacheRepository {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err == nil {
			log.Printf("Redis connected: %s", cfg.Cache.RedisURL)
			return redisCache
		}
		log.Printf("WARNING: Redis unavailable (%v), falling back to memory cache", err)
	}
	return cache.NewMemoryCache()
}

func taxIncludedSources(tags []string) map[domain.SourceTag]bool {
	if len(tags) == 0 {
		return nil
	}
	sources := make(map[domain.SourceTag]bool, len(tags))
	for _, tag := range tags {
		sources[domain.SourceTag(tag)] = true
	}
	return sources
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
