package domain

// MatchType identifies which stage of the matching cascade produced a match
type MatchType string

const (
	MatchTypeGTIN         MatchType = "gtin"
	MatchTypeJAN          MatchType = "jan"
	MatchTypeNameCapacity MatchType = "name_capacity"
	MatchTypeNameBrand    MatchType = "name_brand"
	MatchTypeFuzzy        MatchType = "fuzzy"
)

// MatchDetails records the individual signals evaluated for a match.
// For identifier matches the subsidiary scores are diagnostic only and
// do not affect the confidence.
type MatchDetails struct {
	GTINMatch     bool    `json:"gtinMatch"`
	JANMatch      bool    `json:"janMatch"`
	NameScore     float64 `json:"nameScore"`
	BrandMatch    bool    `json:"brandMatch"`
	CapacityMatch bool    `json:"capacityMatch"`
	CategoryMatch bool    `json:"categoryMatch"`
}

// ProductMatch links one canonical product to one source listing
type ProductMatch struct {
	ProductID  string         `json:"productId"`
	Source     SourceTag      `json:"source"`
	ListingID  string         `json:"listingId"`
	Confidence float64        `json:"confidence"` // 0..1; exactly 1.0 for gtin/jan
	MatchType  MatchType      `json:"matchType"`
	Listing    *SourceListing `json:"listing,omitempty"`
	Details    MatchDetails   `json:"details"`
}

// MatchingResult aggregates all candidate matches for one product.
// BestMatches holds at most one match per source, the highest-confidence one.
type MatchingResult struct {
	ProductID         string                `json:"productId"`
	Matches           []ProductMatch        `json:"matches"`
	BestMatches       []ProductMatch        `json:"bestMatches"`
	OverallConfidence float64               `json:"overallConfidence"`
	SourceConfidence  map[SourceTag]float64 `json:"sourceConfidence"`
	Warnings          []string              `json:"warnings,omitempty"`
}
