package domain

import "time"

// UnitType classifies a capacity unit for reporting purposes
type UnitType string

const (
	UnitTypeCount  UnitType = "count"
	UnitTypeWeight UnitType = "weight"
	UnitTypeVolume UnitType = "volume"
)

// CostMetadata carries the unit classification and optional quality signals
// used for quality-adjusted cost comparison
type CostMetadata struct {
	UnitType        UnitType `json:"unitType"`
	Unit            string   `json:"unit"`
	Concentration   float64  `json:"concentration,omitempty"`
	Bioavailability float64  `json:"bioavailability,omitempty"` // 0..1
	QualityScore    float64  `json:"qualityScore,omitempty"`    // 0..1
}

// CostPerDay is the per-day cost of using a product, derived from one
// NormalizedPrice plus dosage metadata. Rank, IsLowestCost and
// CostDifferenceFromLowest are annotations filled in by CompareCosts.
type CostPerDay struct {
	ProductID            string       `json:"productId"`
	Source               SourceTag    `json:"source"`
	ListingID            string       `json:"listingId,omitempty"`
	ServingSize          float64      `json:"servingSize"`
	ServingsPerContainer int          `json:"servingsPerContainer"`
	DailyIntake          float64      `json:"dailyIntake"` // servings per day
	DaysPerContainer     float64      `json:"daysPerContainer"`
	CostPerDay           float64      `json:"costPerDay"`
	CostPerServing       float64      `json:"costPerServing"`
	CostPerUnit          float64      `json:"costPerUnit"`
	TotalPrice           float64      `json:"totalPrice"`
	Currency             string       `json:"currency"`
	CalculatedAt         time.Time    `json:"calculatedAt"`
	Metadata             CostMetadata `json:"metadata"`

	Rank                     int     `json:"rank,omitempty"`
	IsLowestCost             bool    `json:"isLowestCost,omitempty"`
	CostDifferenceFromLowest float64 `json:"costDifferenceFromLowest"`
}

// ServingInfo optionally overrides the serving size and daily intake
// extracted from the product name
type ServingInfo struct {
	ServingSize float64 `json:"servingSize,omitempty"`
	DailyIntake float64 `json:"dailyIntake,omitempty"`
}

// Recommendation types emitted by cost performance analysis
const (
	RecommendationBudget  = "budget_option"
	RecommendationValue   = "best_value"
	RecommendationPremium = "premium_choice"
)

// Recommendation points at one cost record for a stated reason
type Recommendation struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	Source     SourceTag `json:"source"`
	CostPerDay float64   `json:"costPerDay"`
	Reason     string    `json:"reason"`
}

// CostRange summarizes the spread of costPerDay across compared records
type CostRange struct {
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	Spread           float64 `json:"spread"`
	SpreadPercentage float64 `json:"spreadPercentage"`
}

// CostAnalysis holds descriptive statistics and recommendations over a set
// of cost records
type CostAnalysis struct {
	BestValue       *CostPerDay      `json:"bestValue,omitempty"`
	WorstValue      *CostPerDay      `json:"worstValue,omitempty"`
	AverageCost     float64          `json:"averageCost"`
	MedianCost      float64          `json:"medianCost"`
	CostRange       CostRange        `json:"costRange"`
	Recommendations []Recommendation `json:"recommendations"`
}

// LongTermCost projects a daily cost over standard periods. Only the
// requested periods are populated.
type LongTermCost struct {
	Monthly   *float64 `json:"monthly,omitempty"`
	Quarterly *float64 `json:"quarterly,omitempty"`
	Yearly    *float64 `json:"yearly,omitempty"`
}

// ComparisonResult is the end-to-end output of the comparison pipeline
type ComparisonResult struct {
	ProductID   string            `json:"productId"`
	Matching    MatchingResult    `json:"matching"`
	Prices      []NormalizedPrice `json:"prices"`
	Costs       []CostPerDay      `json:"costs"`
	Analysis    *CostAnalysis     `json:"analysis,omitempty"`
	Source      string            `json:"source"` // "Live" or "Cache"
	GeneratedAt time.Time         `json:"generatedAt"`
}
