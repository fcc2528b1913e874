package domain

// SourceTag identifies the retail source a listing came from
type SourceTag string

const (
	SourceRakuten SourceTag = "rakuten"
	SourceAmazon  SourceTag = "amazon"
)

// AllSources lists the supported source tags in presentation order
var AllSources = []SourceTag{SourceRakuten, SourceAmazon}

// Capacity describes how much product one container holds
type Capacity struct {
	Amount               float64 `json:"amount"`
	Unit                 string  `json:"unit"` // compared case-insensitively, e.g. "mg", "ct"
	ServingsPerContainer int     `json:"servingsPerContainer,omitempty"`
}

// ProductInfo is the canonical product description used as the matching target.
// It is supplied by the caller and never mutated by the core.
type ProductInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand,omitempty"`
	GTIN        string   `json:"gtin,omitempty"`
	JAN         string   `json:"jan,omitempty"`
	Capacity    Capacity `json:"capacity"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SourceListing is one raw listing as delivered by a source connector.
// ShippingCost of 0 means the source declared no explicit shipping price;
// listings that ship for free set ShippingIncluded instead.
type SourceListing struct {
	Code             string  `json:"code"` // source-local id (item code / ASIN)
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	ShippingIncluded bool    `json:"shippingIncluded"`
	ShippingCost     float64 `json:"shippingCost,omitempty"`
	InStock          bool    `json:"inStock"`
	ReviewCount      int     `json:"reviewCount,omitempty"`
	ReviewAverage    float64 `json:"reviewAverage,omitempty"`
	ShopName         string  `json:"shopName,omitempty"`
	GTIN             string  `json:"gtin,omitempty"`
	JAN              string  `json:"jan,omitempty"`
	URL              string  `json:"url,omitempty"`
}
