package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func TestNewComparisonService(t *testing.T) {
	cache := NewMockCacheRepository()

	t.Run("creates service with default values", func(t *testing.T) {
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		if svc == nil {
			t.Fatal("expected service to be created")
		}
		if svc.cacheTTL != 1*time.Hour {
			t.Errorf("cacheTTL = %v, want 1h", svc.cacheTTL)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewComparisonService(cache, ComparisonServiceConfig{
			CacheTTL: 15 * time.Minute,
		})
		if svc.cacheTTL != 15*time.Minute {
			t.Errorf("cacheTTL = %v, want 15m", svc.cacheTTL)
		}
	})
}

func compareFixture() (*domain.ProductInfo, []domain.SourceListing, []domain.SourceListing) {
	product := &domain.ProductInfo{
		ID:       "prod-001",
		Name:     "ビタミンD 1000IU 90粒",
		Brand:    "Nature Made",
		JAN:      "4987035513811",
		Capacity: domain.Capacity{Amount: 90, Unit: "粒"},
	}
	rakuten := []domain.SourceListing{{
		Code:             "rk-1",
		Name:             "ネイチャーメイド ビタミンD 90粒",
		Price:            1980,
		JAN:              "4987035513811",
		InStock:          true,
		ShippingIncluded: true,
	}}
	amazon := []domain.SourceListing{{
		Code:             "am-1",
		Name:             "Nature Made Vitamin D 90 Tablets",
		Price:            2100,
		JAN:              "4987035513811",
		InStock:          true,
		ShippingIncluded: true,
	}}
	return product, rakuten, amazon
}

func TestCompareProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for nil product", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})

		_, err := svc.CompareProduct(ctx, nil, nil, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns error for product without id or name", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})

		_, err := svc.CompareProduct(ctx, &domain.ProductInfo{Name: "no id"}, nil, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("full pipeline produces ranked costs", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, rakuten, amazon := compareFixture()

		result, err := svc.CompareProduct(ctx, product, rakuten, amazon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Source != "Live" {
			t.Errorf("Source = %q, want Live", result.Source)
		}
		if len(result.Matching.BestMatches) != 2 {
			t.Fatalf("expected a best match per source, got %d", len(result.Matching.BestMatches))
		}
		if len(result.Prices) != 2 || len(result.Costs) != 2 {
			t.Fatalf("prices = %d costs = %d, want 2 each", len(result.Prices), len(result.Costs))
		}
		if !result.Costs[0].IsLowestCost {
			t.Error("first cost should be flagged lowest")
		}
		if result.Costs[0].Source != domain.SourceRakuten {
			t.Errorf("lowest source = %v, want rakuten", result.Costs[0].Source)
		}
		if result.Analysis == nil {
			t.Fatal("expected a cost analysis")
		}
		if !cache.setCalled {
			t.Error("expected a successful comparison to be cached")
		}
	})

	t.Run("serves from cache on second call", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, rakuten, amazon := compareFixture()

		first, err := svc.CompareProduct(ctx, product, rakuten, amazon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Source != "Live" {
			t.Fatalf("first Source = %q, want Live", first.Source)
		}

		second, err := svc.CompareProduct(ctx, product, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Source != "Cache" {
			t.Errorf("second Source = %q, want Cache", second.Source)
		}
		if second.ProductID != product.ID {
			t.Errorf("ProductID = %q, want %q", second.ProductID, product.ID)
		}
	})

	t.Run("zero matches is not an error and is not cached", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, _, _ := compareFixture()

		result, err := svc.CompareProduct(ctx, product, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Matching.BestMatches) != 0 {
			t.Errorf("expected no matches, got %d", len(result.Matching.BestMatches))
		}
		if len(result.Matching.Warnings) == 0 {
			t.Error("expected a warning for empty listing pools")
		}
		if cache.setCalled {
			t.Error("empty result must not be cached")
		}
	})

	t.Run("cache errors fall through to live computation", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = domain.ErrCacheUnavailable
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, rakuten, amazon := compareFixture()

		result, err := svc.CompareProduct(ctx, product, rakuten, amazon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Source != "Live" {
			t.Errorf("Source = %q, want Live", result.Source)
		}
		if !cache.getCalled {
			t.Error("expected the cache to be consulted")
		}
	})

	t.Run("cache write failure does not fail the request", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.setError = domain.ErrCacheUnavailable
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, rakuten, amazon := compareFixture()

		result, err := svc.CompareProduct(ctx, product, rakuten, amazon)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Source != "Live" {
			t.Errorf("Source = %q, want Live", result.Source)
		}
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewComparisonService(cache, ComparisonServiceConfig{})
		product, rakuten, amazon := compareFixture()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.CompareProduct(cancelled, product, rakuten, amazon)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestGenerateCacheKey(t *testing.T) {
	svc := NewComparisonService(NewMockCacheRepository(), ComparisonServiceConfig{})

	t.Run("equivalent names share a key", func(t *testing.T) {
		a := svc.generateCacheKey(&domain.ProductInfo{ID: "p1", Name: "Vitamin D  90ct!"})
		b := svc.generateCacheKey(&domain.ProductInfo{ID: "p1", Name: "vitamin d 90ct"})
		if a != b {
			t.Errorf("keys differ: %q vs %q", a, b)
		}
	})

	t.Run("key carries the comparison prefix", func(t *testing.T) {
		key := svc.generateCacheKey(&domain.ProductInfo{ID: "p1", Name: "Vitamin D"})
		if key != "comparison:p1:vitamin d" {
			t.Errorf("key = %q", key)
		}
	})
}
