package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// ExtractedCapacity is a capacity estimate pulled out of a listing's display name
type ExtractedCapacity struct {
	Amount float64
	Unit   string // canonical unit, see canonicalUnit
}

// unitSynonyms maps localized and count-style unit spellings to canonical units.
// All tablet/capsule-style words collapse to "ct".
var unitSynonyms = map[string]string{
	"mg":       "mg",
	"g":        "g",
	"kg":       "kg",
	"ml":       "ml",
	"l":        "l",
	"グラム":      "g",
	"ミリグラム":    "mg",
	"キログラム":    "kg",
	"ミリリットル":   "ml",
	"リットル":     "l",
	"ct":       "ct",
	"count":    "ct",
	"tab":      "ct",
	"tabs":     "ct",
	"tablet":   "ct",
	"tablets":  "ct",
	"capsule":  "ct",
	"capsules": "ct",
	"softgel":  "ct",
	"softgels": "ct",
	"粒":        "ct",
	"錠":        "ct",
	"カプセル":     "ct",
	"個":        "ct",
	"包":        "ct",
	"袋":        "ct",
}

// Compiled extraction patterns. Alternatives are ordered longest-first so
// "mg" wins over "g" and "ミリグラム" over "グラム".
var (
	capacityPattern = regexp.MustCompile(
		`(?i)(\d+(?:\.\d+)?)\s*(ミリグラム|ミリリットル|キログラム|グラム|リットル|mg|kg|ml|ct|count|tablets?|capsules?|softgels?|tabs?|カプセル|粒|錠|個|包|袋|g|l)`)

	// "1回2粒" / "take 2" style serving-size phrasings
	servingSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`1回(\d+)(?:粒|錠|カプセル|個|包)`),
		regexp.MustCompile(`(\d+)粒ずつ`),
		regexp.MustCompile(`(?i)take\s+(\d+)`),
	}

	// "1日3回" / "3 times daily" style intake phrasings
	dailyIntakePatterns = []*regexp.Regexp{
		regexp.MustCompile(`1日(\d+)回`),
		regexp.MustCompile(`(?i)(\d+)\s*times\s+(?:per\s+day|a\s+day|daily)`),
	}

	// "<N>% off" style discount phrasings, Japanese and English
	discountPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[%％]\s*(?:オフ|off|割引|引き)`)

	// "<quantity> units -> <percent>% off" bulk-tier phrasings
	bulkTierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)(?:個|点|袋|本)(?:以上)?で(\d+(?:\.\d+)?)\s*[%％]\s*(?:オフ|off|割引|引き)`),
		regexp.MustCompile(`(?i)buy\s+(\d+)(?:\s+or\s+more)?\s*,?\s*(?:get\s+)?(\d+(?:\.\d+)?)\s*%\s*off`),
	}

	// characters stripped during name normalization: brackets, middle dots,
	// and whitespace including the full-width space
	bracketCharsPattern = regexp.MustCompile(`[\[\]【】〔〕「」()（）]`)
	nameNoisePattern    = regexp.MustCompile(`[\s　・･]+`)
)

// canonicalUnit maps a free-form unit string to its canonical form.
// Unknown units pass through lowercased so same-unit comparison still works.
func canonicalUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitSynonyms[u]; ok {
		return canonical
	}
	return u
}

// extractCapacities returns every capacity candidate found in a display name,
// in order of appearance. Supplement names often carry both a dosage and a
// count ("1000mg 90粒"), so callers pick the candidate relevant to them.
func extractCapacities(name string) []ExtractedCapacity {
	matches := capacityPattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return nil
	}

	capacities := make([]ExtractedCapacity, 0, len(matches))
	for _, m := range matches {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		capacities = append(capacities, ExtractedCapacity{
			Amount: amount,
			Unit:   canonicalUnit(m[2]),
		})
	}
	return capacities
}

// extractCapacityForUnit returns the first capacity candidate matching the
// wanted canonical unit, falling back to the first candidate of any unit so
// the caller can still report why a listing was rejected.
func extractCapacityForUnit(name, wantUnit string) (ExtractedCapacity, bool) {
	capacities := extractCapacities(name)
	if len(capacities) == 0 {
		return ExtractedCapacity{}, false
	}
	for _, c := range capacities {
		if c.Unit == wantUnit {
			return c, true
		}
	}
	return capacities[0], true
}

// extractServingSize pulls a per-dose count from a product name, 0 if absent
func extractServingSize(name string) float64 {
	return firstNumericMatch(name, servingSizePatterns)
}

// extractDailyIntake pulls a doses-per-day count from a product name, 0 if absent
func extractDailyIntake(name string) float64 {
	return firstNumericMatch(name, dailyIntakePatterns)
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNumericMatch(name string, patterns []*regexp.Regexp) float64 {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(name); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				return v
			}
		}
	}
	return 0
}

// extractDiscountRate pulls a "<N>% off" discount from a display name,
// returned as a 0..1 rate. 0 if absent.
func extractDiscountRate(name string) float64 {
	m := discountPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return percent / 100
}

// extractInterval detects a delivery interval keyword in a display name.
// Quarterly phrasings are checked before monthly because "3ヶ月" contains "月".
func extractInterval(name string) (domain.SubscriptionInterval, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "3ヶ月") || strings.Contains(lower, "3ヵ月") ||
		strings.Contains(lower, "3か月") || strings.Contains(lower, "quarter"):
		return domain.IntervalQuarterly, true
	case strings.Contains(lower, "毎週") || strings.Contains(lower, "週"):
		return domain.IntervalWeekly, true
	case strings.Contains(lower, "毎月") || strings.Contains(lower, "月") ||
		strings.Contains(lower, "month"):
		return domain.IntervalMonthly, true
	case strings.Contains(lower, "week"):
		return domain.IntervalWeekly, true
	}
	return "", false
}

// normalizeProductName prepares a display name for edit-distance comparison:
// lowercase, brackets, middle dots and all interior whitespace removed.
func normalizeProductName(name string) string {
	lower := strings.ToLower(name)
	lower = bracketCharsPattern.ReplaceAllString(lower, "")
	lower = nameNoisePattern.ReplaceAllString(lower, "")
	return strings.TrimSpace(lower)
}

// classifyUnit buckets a unit string into weight/volume/count for cost metadata.
// Unrecognized units default to count.
func classifyUnit(unit string) domain.UnitType {
	switch canonicalUnit(unit) {
	case "mg", "g", "kg":
		return domain.UnitTypeWeight
	case "ml", "l":
		return domain.UnitTypeVolume
	default:
		return domain.UnitTypeCount
	}
}
