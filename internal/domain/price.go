package domain

import "time"

// SubscriptionInterval is the delivery cadence advertised for a recurring purchase
type SubscriptionInterval string

const (
	IntervalWeekly    SubscriptionInterval = "weekly"
	IntervalMonthly   SubscriptionInterval = "monthly"
	IntervalQuarterly SubscriptionInterval = "quarterly"
)

// BulkDiscountTier is a quantity threshold at which a listing's display name
// advertises a percentage discount. Advisory metadata, never applied automatically.
type BulkDiscountTier struct {
	Quantity     int     `json:"quantity"`
	DiscountRate float64 `json:"discountRate"` // 0..1
}

// PriceMetadata carries normalization provenance for a NormalizedPrice
type PriceMetadata struct {
	OriginalPrice         float64            `json:"originalPrice"`
	TaxRate               float64            `json:"taxRate"`
	FreeShippingThreshold float64            `json:"freeShippingThreshold"`
	BulkDiscounts         []BulkDiscountTier `json:"bulkDiscounts,omitempty"`
}

// NormalizedPrice is the canonical tax-included price record for one
// (product, source) pair. TotalPrice is always BasePrice + ShippingCost.
type NormalizedPrice struct {
	ProductID            string               `json:"productId"`
	Source               SourceTag            `json:"source"`
	ListingID            string               `json:"listingId"`
	BasePrice            float64              `json:"basePrice"`
	ShippingCost         float64              `json:"shippingCost"`
	TotalPrice           float64              `json:"totalPrice"`
	InStock              bool                 `json:"inStock"`
	IsSubscription       bool                 `json:"isSubscription"`
	SubscriptionDiscount float64              `json:"subscriptionDiscount,omitempty"` // 0..1
	SubscriptionInterval SubscriptionInterval `json:"subscriptionInterval,omitempty"`
	Timestamp            time.Time            `json:"timestamp"`
	URL                  string               `json:"url,omitempty"`
	ShopName             string               `json:"shopName,omitempty"`
	Currency             string               `json:"currency"`
	TaxIncluded          bool                 `json:"taxIncluded"`
	Metadata             PriceMetadata        `json:"metadata"`
}

// ValidationResult reports post-hoc invariant checks. Callers decide whether
// to reject, log, or accept with caveats; the core never panics on bad data.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}
