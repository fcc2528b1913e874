package usecase

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Validation thresholds for normalized prices
const (
	maxPlausibleBasePrice = 1000000.0 // yen
	maxPlausibleShipping  = 10000.0   // yen
	priceReconcileUnit    = 1.0       // smallest currency unit
)

// defaultSubscriptionKeywords are recurring-delivery terms scanned for in
// display names when no keyword set is configured
var defaultSubscriptionKeywords = []string{
	"定期", "定期便", "定期購入", "定期コース",
	"subscribe & save", "subscribe and save", "subscription",
}

// NormalizerConfig holds configuration for the price normalizer
type NormalizerConfig struct {
	TaxRate               float64
	TaxIncludedSources    map[domain.SourceTag]bool
	DefaultShippingCost   float64
	FreeShippingThreshold float64
	SubscriptionKeywords  []string
	CurrencyRates         map[string]float64 // "USD_JPY"-style keys
	EnableDebugLogging    bool
}

// PriceNormalizer converts raw source listings into canonical tax-included
// JPY price records. Stateless once constructed; safe for concurrent use.
type PriceNormalizer struct {
	taxRate               float64
	taxIncludedSources    map[domain.SourceTag]bool
	defaultShippingCost   float64
	freeShippingThreshold float64
	subscriptionKeywords  []string
	currencyRates         map[string]float64
	enableDebugLogging    bool
}

// NewPriceNormalizer creates a normalizer with the given configuration,
// falling back to Japanese-market defaults for unset values.
func NewPriceNormalizer(config NormalizerConfig) *PriceNormalizer {
	taxRate := config.TaxRate
	if taxRate <= 0 {
		taxRate = 0.10 // Japanese consumption tax
	}

	shipping := config.DefaultShippingCost
	if shipping <= 0 {
		shipping = 500
	}

	threshold := config.FreeShippingThreshold
	if threshold <= 0 {
		threshold = 3980 // Rakuten free-shipping line
	}

	keywords := config.SubscriptionKeywords
	if len(keywords) == 0 {
		keywords = defaultSubscriptionKeywords
	}

	// Listed sources price tax-inclusive by convention; unlisted sources are
	// treated as tax-exclusive. An empty map means every source is inclusive.
	taxIncluded := config.TaxIncludedSources
	if taxIncluded == nil {
		taxIncluded = map[domain.SourceTag]bool{
			domain.SourceRakuten: true,
			domain.SourceAmazon:  true,
		}
	}

	rates := make(map[string]float64, len(config.CurrencyRates))
	for pair, rate := range config.CurrencyRates {
		rates[strings.ToUpper(pair)] = rate
	}

	return &PriceNormalizer{
		taxRate:               taxRate,
		taxIncludedSources:    taxIncluded,
		defaultShippingCost:   shipping,
		freeShippingThreshold: threshold,
		subscriptionKeywords:  keywords,
		currencyRates:         rates,
		enableDebugLogging:    config.EnableDebugLogging,
	}
}

// Normalize converts one raw listing into a NormalizedPrice. Malformed
// display names degrade to "no subscription / no bulk discount" rather than
// failing; callers observe data quality through ValidatePrice.
func (n *PriceNormalizer) Normalize(listing domain.SourceListing, source domain.SourceTag, productID string) domain.NormalizedPrice {
	basePrice := listing.Price
	if !n.taxIncludedSources[source] {
		basePrice = basePrice * (1 + n.taxRate)
	}
	basePrice = math.Round(basePrice)

	shippingCost := n.shippingCost(listing, basePrice)

	isSubscription, discount, interval := n.detectSubscription(listing.Name)

	price := domain.NormalizedPrice{
		ProductID:      productID,
		Source:         source,
		ListingID:      listing.Code,
		BasePrice:      basePrice,
		ShippingCost:   shippingCost,
		TotalPrice:     basePrice + shippingCost,
		InStock:        listing.InStock,
		IsSubscription: isSubscription,
		Timestamp:      time.Now(),
		URL:            listing.URL,
		ShopName:       listing.ShopName,
		Currency:       "JPY",
		TaxIncluded:    true,
		Metadata: domain.PriceMetadata{
			OriginalPrice:         listing.Price,
			TaxRate:               n.taxRate,
			FreeShippingThreshold: n.freeShippingThreshold,
			BulkDiscounts:         n.DetectBulkDiscounts(listing.Name),
		},
	}
	if isSubscription {
		price.SubscriptionDiscount = discount
		price.SubscriptionInterval = interval
	}

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] %s/%s: base=%.0f shipping=%.0f total=%.0f subscription=%v",
			source, listing.Code, basePrice, shippingCost, price.TotalPrice, isSubscription)
	}

	return price
}

// shippingCost applies the shipping rule in order: included flag, free-shipping
// threshold, listing-declared price, configured default.
func (n *PriceNormalizer) shippingCost(listing domain.SourceListing, basePrice float64) float64 {
	if listing.ShippingIncluded {
		return 0
	}
	if basePrice >= n.freeShippingThreshold {
		return 0
	}
	if listing.ShippingCost > 0 {
		return math.Round(listing.ShippingCost)
	}
	return n.defaultShippingCost
}

// detectSubscription scans a display name for recurring-delivery keywords and,
// if found, extracts an optional discount rate and delivery interval.
// The interval defaults to monthly when no interval keyword is present.
func (n *PriceNormalizer) detectSubscription(name string) (bool, float64, domain.SubscriptionInterval) {
	lower := strings.ToLower(name)
	found := false
	for _, keyword := range n.subscriptionKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			found = true
			break
		}
	}
	if !found {
		return false, 0, ""
	}

	discount := extractDiscountRate(name)
	interval, ok := extractInterval(name)
	if !ok {
		interval = domain.IntervalMonthly
	}
	return true, discount, interval
}

// DetectBulkDiscounts extracts "<quantity> units -> <percent>% off" tiers
// from a display name, sorted ascending by quantity. Advisory metadata only.
func (n *PriceNormalizer) DetectBulkDiscounts(name string) []domain.BulkDiscountTier {
	var tiers []domain.BulkDiscountTier
	seen := make(map[int]bool)

	for _, pattern := range bulkTierPatterns {
		for _, m := range pattern.FindAllStringSubmatch(name, -1) {
			quantity := parseInt(m[1])
			percent := parseFloat(m[2])
			if quantity <= 0 || percent <= 0 || seen[quantity] {
				continue
			}
			seen[quantity] = true
			tiers = append(tiers, domain.BulkDiscountTier{
				Quantity:     quantity,
				DiscountRate: percent / 100,
			})
		}
	}

	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].Quantity < tiers[j].Quantity
	})
	return tiers
}

// NormalizeForComparison returns copies of the given prices with subscription
// discounts applied to the totals, so subscription and one-shot listings can
// be compared apples to apples. Non-subscription prices pass through unchanged.
func (n *PriceNormalizer) NormalizeForComparison(prices []domain.NormalizedPrice) []domain.NormalizedPrice {
	normalized := make([]domain.NormalizedPrice, len(prices))
	for i, price := range prices {
		normalized[i] = price
		if price.IsSubscription && price.SubscriptionDiscount > 0 {
			normalized[i].TotalPrice = math.Round(price.TotalPrice * (1 - price.SubscriptionDiscount))
		}
	}
	return normalized
}

// ConvertCurrency converts an amount using the configured static rate table.
// Identity when from == to; an unconfigured pair is a configuration error.
func (n *PriceNormalizer) ConvertCurrency(amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}

	rate, ok := n.currencyRates[from+"_"+to]
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s", domain.ErrUnsupportedCurrency, from, to)
	}
	return amount * rate, nil
}

// ValidatePrice checks a normalized price against its invariants.
// Reconciliation tolerance is one smallest currency unit.
func (n *PriceNormalizer) ValidatePrice(price domain.NormalizedPrice) domain.ValidationResult {
	result := domain.ValidationResult{IsValid: true}

	if price.BasePrice <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("base price must be positive, got %.2f", price.BasePrice))
	}
	if price.ShippingCost < 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("shipping cost must not be negative, got %.2f", price.ShippingCost))
	}
	if math.Abs(price.TotalPrice-(price.BasePrice+price.ShippingCost)) > priceReconcileUnit {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"total price %.2f does not reconcile with base %.2f + shipping %.2f",
			price.TotalPrice, price.BasePrice, price.ShippingCost))
	}
	if price.IsSubscription && (price.SubscriptionDiscount < 0 || price.SubscriptionDiscount > 1) {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"subscription discount rate must be in [0,1], got %.2f", price.SubscriptionDiscount))
	}

	if price.BasePrice > maxPlausibleBasePrice {
		result.Warnings = append(result.Warnings, fmt.Sprintf("implausibly large base price: %.0f", price.BasePrice))
	}
	if price.ShippingCost > maxPlausibleShipping {
		result.Warnings = append(result.Warnings, fmt.Sprintf("implausibly large shipping cost: %.0f", price.ShippingCost))
	}
	if price.Currency != "JPY" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("price is not in base currency: %s", price.Currency))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
