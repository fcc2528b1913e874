package usecase

import (
	"errors"
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func jpyPrice(total float64) domain.NormalizedPrice {
	return domain.NormalizedPrice{
		ProductID:  "prod-001",
		Source:     domain.SourceRakuten,
		ListingID:  "rk-1",
		BasePrice:  total,
		TotalPrice: total,
		Currency:   "JPY",
	}
}

func TestCalculateCostPerDay(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	t.Run("defaults to one serving once per day", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-001",
			Name:     "Vitamin D 1000IU 90ct",
			Capacity: domain.Capacity{Amount: 90, Unit: "ct"},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(1980), product, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cost.ServingsPerContainer != 90 {
			t.Errorf("ServingsPerContainer = %d, want 90", cost.ServingsPerContainer)
		}
		if cost.DaysPerContainer != 90 {
			t.Errorf("DaysPerContainer = %v, want 90", cost.DaysPerContainer)
		}
		if cost.CostPerDay != 22.0 {
			t.Errorf("CostPerDay = %v, want 22.0", cost.CostPerDay)
		}
		if cost.CostPerServing != 22.0 {
			t.Errorf("CostPerServing = %v, want 22.0", cost.CostPerServing)
		}
		if cost.CostPerUnit != 22.0 {
			t.Errorf("CostPerUnit = %v, want 22.0", cost.CostPerUnit)
		}
		if cost.Metadata.UnitType != domain.UnitTypeCount {
			t.Errorf("UnitType = %v, want count", cost.Metadata.UnitType)
		}
	})

	t.Run("extracts dosage from the product name", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-002",
			Name:     "DHA サプリ 120粒 1回2粒 1日2回",
			Capacity: domain.Capacity{Amount: 120, Unit: "粒"},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(2400), product, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cost.ServingSize != 2 {
			t.Errorf("ServingSize = %v, want 2", cost.ServingSize)
		}
		if cost.DailyIntake != 2 {
			t.Errorf("DailyIntake = %v, want 2", cost.DailyIntake)
		}
		if cost.ServingsPerContainer != 60 {
			t.Errorf("ServingsPerContainer = %d, want 60", cost.ServingsPerContainer)
		}
		if cost.DaysPerContainer != 30 {
			t.Errorf("DaysPerContainer = %v, want 30", cost.DaysPerContainer)
		}
		if cost.CostPerDay != 80 {
			t.Errorf("CostPerDay = %v, want 80", cost.CostPerDay)
		}
	})

	t.Run("caller-supplied serving info wins over extraction", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-003",
			Name:     "Protein 1回2粒",
			Capacity: domain.Capacity{Amount: 100, Unit: "ct"},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(1000), product, &domain.ServingInfo{ServingSize: 5, DailyIntake: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cost.ServingSize != 5 {
			t.Errorf("ServingSize = %v, want 5", cost.ServingSize)
		}
		if cost.ServingsPerContainer != 20 {
			t.Errorf("ServingsPerContainer = %d, want 20", cost.ServingsPerContainer)
		}
	})

	t.Run("explicit servingsPerContainer wins over division", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-004",
			Name:     "Collagen Powder 200g",
			Capacity: domain.Capacity{Amount: 200, Unit: "g", ServingsPerContainer: 28},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(2800), product, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cost.ServingsPerContainer != 28 {
			t.Errorf("ServingsPerContainer = %d, want 28", cost.ServingsPerContainer)
		}
		if cost.CostPerServing != 100 {
			t.Errorf("CostPerServing = %v, want 100", cost.CostPerServing)
		}
		if cost.Metadata.UnitType != domain.UnitTypeWeight {
			t.Errorf("UnitType = %v, want weight", cost.Metadata.UnitType)
		}
	})

	t.Run("weight division uses the same floor rule as count", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-005",
			Name:     "Collagen 155g",
			Capacity: domain.Capacity{Amount: 155, Unit: "g"},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(1550), product, &domain.ServingInfo{ServingSize: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cost.ServingsPerContainer != 15 { // floor(155/10)
			t.Errorf("ServingsPerContainer = %d, want 15", cost.ServingsPerContainer)
		}
	})

	t.Run("zero capacity is rejected", func(t *testing.T) {
		product := domain.ProductInfo{ID: "prod-006", Name: "Broken", Capacity: domain.Capacity{Amount: 0, Unit: "ct"}}
		_, err := c.CalculateCostPerDay(jpyPrice(1000), product, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("reconciliation invariants hold", func(t *testing.T) {
		product := domain.ProductInfo{
			ID:       "prod-007",
			Name:     "Magnesium 250mg 60粒",
			Capacity: domain.Capacity{Amount: 60, Unit: "粒"},
		}

		cost, err := c.CalculateCostPerDay(jpyPrice(1580), product, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := c.ValidateCostCalculation(*cost)
		if !result.IsValid {
			t.Errorf("fresh calculation should validate, errors: %v", result.Errors)
		}
	})
}

func TestCompareCosts(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	costs := []domain.CostPerDay{
		{ListingID: "mid", CostPerDay: 50},
		{ListingID: "low", CostPerDay: 20},
		{ListingID: "high", CostPerDay: 80},
	}

	compared := c.CompareCosts(costs)

	if len(compared) != 3 {
		t.Fatalf("len = %d, want 3", len(compared))
	}
	if compared[0].ListingID != "low" || compared[1].ListingID != "mid" || compared[2].ListingID != "high" {
		t.Errorf("not sorted ascending: %v %v %v", compared[0].ListingID, compared[1].ListingID, compared[2].ListingID)
	}
	if !compared[0].IsLowestCost {
		t.Error("first element must be flagged lowest")
	}
	if compared[0].CostDifferenceFromLowest != 0 {
		t.Errorf("lowest difference = %v, want 0", compared[0].CostDifferenceFromLowest)
	}
	if compared[1].Rank != 2 || compared[2].Rank != 3 {
		t.Errorf("ranks = %d %d, want 2 3", compared[1].Rank, compared[2].Rank)
	}
	if compared[2].CostDifferenceFromLowest != 60 {
		t.Errorf("difference = %v, want 60", compared[2].CostDifferenceFromLowest)
	}
	if costs[0].ListingID != "mid" {
		t.Error("input slice must not be reordered")
	}
}

func TestFindLowestCost(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	t.Run("nil for empty input", func(t *testing.T) {
		if got := c.FindLowestCost(nil); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("linear minimum", func(t *testing.T) {
		costs := []domain.CostPerDay{
			{ListingID: "a", CostPerDay: 30},
			{ListingID: "b", CostPerDay: 10},
			{ListingID: "c", CostPerDay: 20},
		}
		got := c.FindLowestCost(costs)
		if got == nil || got.ListingID != "b" {
			t.Errorf("got %+v, want listing b", got)
		}
	})
}

func TestCalculateQualityAdjustedCost(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	tests := []struct {
		name string
		cost domain.CostPerDay
		want float64
	}{
		{
			name: "no signals is a no-op",
			cost: domain.CostPerDay{CostPerDay: 100},
			want: 100,
		},
		{
			name: "quality score discounts",
			cost: domain.CostPerDay{CostPerDay: 100, Metadata: domain.CostMetadata{QualityScore: 0.5}},
			want: 90, // 100 * (1 - 0.5*0.2)
		},
		{
			name: "bioavailability penalizes",
			cost: domain.CostPerDay{CostPerDay: 100, Metadata: domain.CostMetadata{Bioavailability: 0.5}},
			want: 150, // 100 * (2 - 0.5)
		},
		{
			name: "both compose multiplicatively",
			cost: domain.CostPerDay{CostPerDay: 100, Metadata: domain.CostMetadata{QualityScore: 0.5, Bioavailability: 0.5}},
			want: 135, // 100 * 0.9 * 1.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.CalculateQualityAdjustedCost(tt.cost); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeCostPerformance(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	t.Run("nil for empty input", func(t *testing.T) {
		if got := c.AnalyzeCostPerformance(nil); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("statistics and budget recommendation", func(t *testing.T) {
		costs := []domain.CostPerDay{
			{ProductID: "p", Source: domain.SourceRakuten, ListingID: "a", CostPerDay: 20},
			{ProductID: "p", Source: domain.SourceAmazon, ListingID: "b", CostPerDay: 40},
		}

		analysis := c.AnalyzeCostPerformance(costs)
		if analysis == nil {
			t.Fatal("expected analysis")
		}
		if analysis.AverageCost != 30 {
			t.Errorf("AverageCost = %v, want 30", analysis.AverageCost)
		}
		if analysis.MedianCost != 30 {
			t.Errorf("MedianCost = %v, want 30", analysis.MedianCost)
		}
		if analysis.CostRange.Min != 20 || analysis.CostRange.Max != 40 {
			t.Errorf("CostRange = %+v, want min 20 max 40", analysis.CostRange)
		}
		if analysis.CostRange.Spread != 20 {
			t.Errorf("Spread = %v, want 20", analysis.CostRange.Spread)
		}
		if analysis.CostRange.SpreadPercentage != 100 {
			t.Errorf("SpreadPercentage = %v, want 100", analysis.CostRange.SpreadPercentage)
		}

		if len(analysis.Recommendations) == 0 {
			t.Fatal("expected recommendations")
		}
		budget := analysis.Recommendations[0]
		if budget.Type != domain.RecommendationBudget || budget.Source != domain.SourceRakuten {
			t.Errorf("budget recommendation = %+v", budget)
		}
	})

	t.Run("best value differs from budget when quality shifts the winner", func(t *testing.T) {
		costs := []domain.CostPerDay{
			{ProductID: "p1", Source: domain.SourceRakuten, CostPerDay: 100},
			{ProductID: "p2", Source: domain.SourceAmazon, CostPerDay: 101,
				Metadata: domain.CostMetadata{QualityScore: 0.9}},
		}

		analysis := c.AnalyzeCostPerformance(costs)
		var haveValue, havePremium bool
		for _, r := range analysis.Recommendations {
			switch r.Type {
			case domain.RecommendationValue:
				haveValue = true
				if r.ProductID != "p2" {
					t.Errorf("best_value = %s, want p2", r.ProductID)
				}
			case domain.RecommendationPremium:
				havePremium = true
				if r.ProductID != "p2" {
					t.Errorf("premium_choice = %s, want p2", r.ProductID)
				}
			}
		}
		if !haveValue {
			t.Error("expected a best_value recommendation")
		}
		if !havePremium {
			t.Error("expected a premium_choice recommendation")
		}
	})

	t.Run("no best value when budget already wins adjusted", func(t *testing.T) {
		costs := []domain.CostPerDay{
			{ProductID: "p1", Source: domain.SourceRakuten, CostPerDay: 20},
			{ProductID: "p2", Source: domain.SourceAmazon, CostPerDay: 40},
		}

		analysis := c.AnalyzeCostPerformance(costs)
		for _, r := range analysis.Recommendations {
			if r.Type == domain.RecommendationValue {
				t.Errorf("unexpected best_value recommendation: %+v", r)
			}
		}
	})
}

func TestCalculateLongTermCost(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})
	cost := domain.CostPerDay{CostPerDay: 22}

	t.Run("all periods by default", func(t *testing.T) {
		projection := c.CalculateLongTermCost(cost, nil)
		if projection.Monthly == nil || *projection.Monthly != 660 {
			t.Errorf("Monthly = %v, want 660", projection.Monthly)
		}
		if projection.Quarterly == nil || *projection.Quarterly != 1980 {
			t.Errorf("Quarterly = %v, want 1980", projection.Quarterly)
		}
		if projection.Yearly == nil || *projection.Yearly != 8030 {
			t.Errorf("Yearly = %v, want 8030", projection.Yearly)
		}
	})

	t.Run("only requested periods", func(t *testing.T) {
		projection := c.CalculateLongTermCost(cost, []string{"monthly"})
		if projection.Monthly == nil {
			t.Error("expected Monthly")
		}
		if projection.Quarterly != nil || projection.Yearly != nil {
			t.Error("expected only the requested period")
		}
	})
}

func TestValidateCostCalculation(t *testing.T) {
	c := NewCostCalculator(CalculatorConfig{})

	valid := domain.CostPerDay{
		TotalPrice:           1980,
		ServingsPerContainer: 90,
		DaysPerContainer:     90,
		CostPerDay:           22,
		CostPerServing:       22,
	}

	t.Run("valid record passes", func(t *testing.T) {
		result := c.ValidateCostCalculation(valid)
		if !result.IsValid {
			t.Errorf("IsValid = false, errors: %v", result.Errors)
		}
	})

	t.Run("non-positive denominators error", func(t *testing.T) {
		cost := valid
		cost.DaysPerContainer = 0
		if result := c.ValidateCostCalculation(cost); result.IsValid {
			t.Error("expected invalid")
		}
	})

	t.Run("cost per day reconciliation", func(t *testing.T) {
		cost := valid
		cost.CostPerDay = 25 // 1980/90 = 22
		if result := c.ValidateCostCalculation(cost); result.IsValid {
			t.Error("expected invalid")
		}
	})

	t.Run("short container warns", func(t *testing.T) {
		cost := domain.CostPerDay{
			TotalPrice:           100,
			ServingsPerContainer: 1,
			DaysPerContainer:     0.5,
			CostPerDay:           200,
			CostPerServing:       100,
		}
		result := c.ValidateCostCalculation(cost)
		if !result.IsValid {
			t.Errorf("expected valid, errors: %v", result.Errors)
		}
		if len(result.Warnings) == 0 {
			t.Error("expected a days-per-container warning")
		}
	})
}
