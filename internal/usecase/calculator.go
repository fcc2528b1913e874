package usecase

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Cost calculation constants
const (
	defaultQualityWeightFactor = 0.2
	premiumQualityFloor        = 0.8
	costReconcileTolerance     = 0.01
	maxPlausibleCostPerDay     = 10000.0
	daysPerMonth               = 30
	daysPerQuarter             = 90
	daysPerYear                = 365
)

// CalculatorConfig holds configuration for the cost calculator
type CalculatorConfig struct {
	QualityWeightFactor float64
	EnableDebugLogging  bool
}

// CostCalculator derives per-day cost figures from normalized prices and
// provides ranking and recommendation utilities. Stateless once constructed;
// safe for concurrent use.
type CostCalculator struct {
	qualityWeightFactor float64
	enableDebugLogging  bool
}

// NewCostCalculator creates a calculator with the given configuration
func NewCostCalculator(config CalculatorConfig) *CostCalculator {
	factor := config.QualityWeightFactor
	if factor <= 0 {
		factor = defaultQualityWeightFactor
	}
	return &CostCalculator{
		qualityWeightFactor: factor,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// CalculateCostPerDay converts one normalized price plus dosage metadata into
// a cost-per-day record. Serving size and daily intake default to 1 unless
// supplied by the caller or extractable from the product name. All derived
// figures are rounded to 2 decimal places.
func (c *CostCalculator) CalculateCostPerDay(price domain.NormalizedPrice, product domain.ProductInfo, serving *domain.ServingInfo) (*domain.CostPerDay, error) {
	servingSize, dailyIntake := c.resolveServing(product, serving)

	servingsPerContainer := product.Capacity.ServingsPerContainer
	if servingsPerContainer <= 0 {
		if product.Capacity.Amount <= 0 {
			return nil, fmt.Errorf("%w: product capacity amount must be positive", domain.ErrInvalidRequest)
		}
		servingsPerContainer = int(math.Floor(product.Capacity.Amount / servingSize))
	}
	if servingsPerContainer <= 0 {
		return nil, fmt.Errorf("%w: serving size %.2f exceeds container capacity", domain.ErrInvalidRequest, servingSize)
	}

	// Rounded first so the stored record reconciles with itself
	daysPerContainer := round2(float64(servingsPerContainer) / dailyIntake)

	cost := &domain.CostPerDay{
		ProductID:            price.ProductID,
		Source:               price.Source,
		ListingID:            price.ListingID,
		ServingSize:          servingSize,
		ServingsPerContainer: servingsPerContainer,
		DailyIntake:          dailyIntake,
		DaysPerContainer:     daysPerContainer,
		CostPerDay:           round2(price.TotalPrice / daysPerContainer),
		CostPerServing:       round2(price.TotalPrice / float64(servingsPerContainer)),
		TotalPrice:           price.TotalPrice,
		Currency:             price.Currency,
		CalculatedAt:         time.Now(),
		Metadata: domain.CostMetadata{
			UnitType: classifyUnit(product.Capacity.Unit),
			Unit:     canonicalUnit(product.Capacity.Unit),
		},
	}
	if product.Capacity.Amount > 0 {
		cost.CostPerUnit = round2(price.TotalPrice / product.Capacity.Amount)
	}

	if c.enableDebugLogging {
		log.Printf("[COST] %s/%s: days=%.1f perDay=%.2f perServing=%.2f",
			price.Source, price.ListingID, cost.DaysPerContainer, cost.CostPerDay, cost.CostPerServing)
	}

	return cost, nil
}

// resolveServing applies the precedence caller override > name extraction > 1
func (c *CostCalculator) resolveServing(product domain.ProductInfo, serving *domain.ServingInfo) (float64, float64) {
	servingSize := 0.0
	dailyIntake := 0.0
	if serving != nil {
		servingSize = serving.ServingSize
		dailyIntake = serving.DailyIntake
	}

	if servingSize <= 0 {
		servingSize = extractServingSize(product.Name)
	}
	if servingSize <= 0 {
		servingSize = 1
	}
	if dailyIntake <= 0 {
		dailyIntake = extractDailyIntake(product.Name)
	}
	if dailyIntake <= 0 {
		dailyIntake = 1
	}
	return servingSize, dailyIntake
}

// CompareCosts returns the input sorted ascending by costPerDay, annotated
// with 1-based rank, the lowest-cost flag and the difference from the lowest
func (c *CostCalculator) CompareCosts(costs []domain.CostPerDay) []domain.CostPerDay {
	compared := make([]domain.CostPerDay, len(costs))
	copy(compared, costs)

	sort.SliceStable(compared, func(i, j int) bool {
		return compared[i].CostPerDay < compared[j].CostPerDay
	})

	for i := range compared {
		compared[i].Rank = i + 1
		compared[i].IsLowestCost = i == 0
		compared[i].CostDifferenceFromLowest = round2(compared[i].CostPerDay - compared[0].CostPerDay)
	}
	return compared
}

// FindLowestCost returns the record with the lowest costPerDay, nil for
// empty input
func (c *CostCalculator) FindLowestCost(costs []domain.CostPerDay) *domain.CostPerDay {
	if len(costs) == 0 {
		return nil
	}
	lowest := &costs[0]
	for i := range costs {
		if costs[i].CostPerDay < lowest.CostPerDay {
			lowest = &costs[i]
		}
	}
	return lowest
}

// CalculateQualityAdjustedCost discounts a cost by its quality score and
// penalizes poor bioavailability. Both adjustments are independent and
// compose multiplicatively; absent signals are no-ops.
func (c *CostCalculator) CalculateQualityAdjustedCost(cost domain.CostPerDay) float64 {
	adjusted := cost.CostPerDay
	if quality := cost.Metadata.QualityScore; quality > 0 && quality <= 1 {
		adjusted *= 1 - quality*c.qualityWeightFactor
	}
	if bio := cost.Metadata.Bioavailability; bio > 0 && bio <= 1 {
		adjusted *= 2 - bio
	}
	return round2(adjusted)
}

// AnalyzeCostPerformance computes descriptive statistics over costPerDay and
// emits purchase recommendations. Returns nil for empty input.
func (c *CostCalculator) AnalyzeCostPerformance(costs []domain.CostPerDay) *domain.CostAnalysis {
	if len(costs) == 0 {
		return nil
	}

	sorted := c.CompareCosts(costs)
	lowest := sorted[0]
	highest := sorted[len(sorted)-1]

	sum := 0.0
	for _, cost := range sorted {
		sum += cost.CostPerDay
	}
	average := sum / float64(len(sorted))

	median := sorted[len(sorted)/2].CostPerDay
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1].CostPerDay + sorted[len(sorted)/2].CostPerDay) / 2
	}

	spread := highest.CostPerDay - lowest.CostPerDay
	spreadPercentage := 0.0
	if lowest.CostPerDay > 0 {
		spreadPercentage = spread / lowest.CostPerDay * 100
	}

	analysis := &domain.CostAnalysis{
		BestValue:   &sorted[0],
		WorstValue:  &sorted[len(sorted)-1],
		AverageCost: round2(average),
		MedianCost:  round2(median),
		CostRange: domain.CostRange{
			Min:              lowest.CostPerDay,
			Max:              highest.CostPerDay,
			Spread:           round2(spread),
			SpreadPercentage: round2(spreadPercentage),
		},
	}
	analysis.Recommendations = c.recommend(sorted)
	return analysis
}

// recommend builds the recommendation list from costs sorted ascending:
// budget_option always, best_value when the quality-adjusted winner differs
// from it, premium_choice for the cheapest high-quality item if one exists.
func (c *CostCalculator) recommend(sorted []domain.CostPerDay) []domain.Recommendation {
	budget := sorted[0]
	recommendations := []domain.Recommendation{{
		Type:       domain.RecommendationBudget,
		ProductID:  budget.ProductID,
		Source:     budget.Source,
		CostPerDay: budget.CostPerDay,
		Reason:     "lowest cost per day",
	}}

	bestValue := sorted[0]
	bestAdjusted := c.CalculateQualityAdjustedCost(bestValue)
	for _, cost := range sorted[1:] {
		if adjusted := c.CalculateQualityAdjustedCost(cost); adjusted < bestAdjusted {
			bestValue = cost
			bestAdjusted = adjusted
		}
	}
	if bestValue.ProductID != budget.ProductID || bestValue.Source != budget.Source {
		recommendations = append(recommendations, domain.Recommendation{
			Type:       domain.RecommendationValue,
			ProductID:  bestValue.ProductID,
			Source:     bestValue.Source,
			CostPerDay: bestValue.CostPerDay,
			Reason:     "lowest quality-adjusted cost",
		})
	}

	for _, cost := range sorted {
		if cost.Metadata.QualityScore > premiumQualityFloor {
			recommendations = append(recommendations, domain.Recommendation{
				Type:       domain.RecommendationPremium,
				ProductID:  cost.ProductID,
				Source:     cost.Source,
				CostPerDay: cost.CostPerDay,
				Reason:     fmt.Sprintf("cheapest option with quality score above %.1f", premiumQualityFloor),
			})
			break
		}
	}

	return recommendations
}

// CalculateLongTermCost projects a daily cost over the requested periods
// ("monthly", "quarterly", "yearly"); all three when none are given.
func (c *CostCalculator) CalculateLongTermCost(cost domain.CostPerDay, periods []string) domain.LongTermCost {
	if len(periods) == 0 {
		periods = []string{"monthly", "quarterly", "yearly"}
	}

	var result domain.LongTermCost
	for _, period := range periods {
		switch period {
		case "monthly":
			result.Monthly = projectedCost(cost.CostPerDay, daysPerMonth)
		case "quarterly":
			result.Quarterly = projectedCost(cost.CostPerDay, daysPerQuarter)
		case "yearly":
			result.Yearly = projectedCost(cost.CostPerDay, daysPerYear)
		}
	}
	return result
}

func projectedCost(costPerDay float64, days float64) *float64 {
	v := round2(costPerDay * days)
	return &v
}

// ValidateCostCalculation checks a cost record against its invariants.
func (c *CostCalculator) ValidateCostCalculation(cost domain.CostPerDay) domain.ValidationResult {
	result := domain.ValidationResult{IsValid: true}

	if cost.CostPerDay <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("cost per day must be positive, got %.2f", cost.CostPerDay))
	}
	if cost.CostPerServing <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("cost per serving must be positive, got %.2f", cost.CostPerServing))
	}
	if cost.DaysPerContainer <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("days per container must be positive, got %.2f", cost.DaysPerContainer))
	}

	if cost.DaysPerContainer > 0 {
		expected := cost.TotalPrice / cost.DaysPerContainer
		if math.Abs(cost.CostPerDay-expected) > costReconcileTolerance {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"cost per day %.2f does not reconcile with total %.2f / %.2f days",
				cost.CostPerDay, cost.TotalPrice, cost.DaysPerContainer))
		}
	}
	if cost.ServingsPerContainer > 0 {
		expected := cost.TotalPrice / float64(cost.ServingsPerContainer)
		if math.Abs(cost.CostPerServing-expected) > costReconcileTolerance {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"cost per serving %.2f does not reconcile with total %.2f / %d servings",
				cost.CostPerServing, cost.TotalPrice, cost.ServingsPerContainer))
		}
	}

	if cost.CostPerDay > maxPlausibleCostPerDay {
		result.Warnings = append(result.Warnings, fmt.Sprintf("implausibly high cost per day: %.2f", cost.CostPerDay))
	}
	if cost.DaysPerContainer > 0 && (cost.DaysPerContainer < 1 || cost.DaysPerContainer > daysPerYear) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("days per container outside [1, 365]: %.2f", cost.DaysPerContainer))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// round2 rounds to 2 decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
