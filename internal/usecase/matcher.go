package usecase

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// Signal weights for the fallback confidence calculation. Only signals that
// were actually evaluated for a match contribute to the weighted mean.
const (
	weightGTIN     = 1.0
	weightJAN      = 1.0
	weightName     = 0.4
	weightBrand    = 0.3
	weightCapacity = 0.2
	weightCategory = 0.1
)

// MatcherConfig holds configuration for the product matcher
type MatcherConfig struct {
	MinNameSimilarity  float64 // name similarity floor for the fallback path
	MinConfidence      float64 // overall confidence floor for the fallback path
	MediumConfidence   float64 // below this a candidate triggers a warning
	CapacityTolerance  float64 // relative amount tolerance, e.g. 0.10 for ±10%
	EnableDebugLogging bool
}

// ProductMatcher resolves which listings from each source pool represent the
// same physical product as a canonical ProductInfo. Stateless once
// constructed; safe for concurrent use.
type ProductMatcher struct {
	minNameSimilarity  float64
	minConfidence      float64
	mediumConfidence   float64
	capacityTolerance  float64
	enableDebugLogging bool
}

// NewProductMatcher creates a matcher with the given configuration
func NewProductMatcher(config MatcherConfig) *ProductMatcher {
	minName := config.MinNameSimilarity
	if minName <= 0 {
		minName = 0.5
	}
	minConf := config.MinConfidence
	if minConf <= 0 {
		minConf = 0.6
	}
	medium := config.MediumConfidence
	if medium <= 0 {
		medium = 0.9
	}
	tolerance := config.CapacityTolerance
	if tolerance <= 0 {
		tolerance = 0.10
	}

	return &ProductMatcher{
		minNameSimilarity:  minName,
		minConfidence:      minConf,
		mediumConfidence:   medium,
		capacityTolerance:  tolerance,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// sourcePool pairs a listing pool with its source tag for the cascade
type sourcePool struct {
	tag      domain.SourceTag
	listings []domain.SourceListing
}

// MatchProduct runs the matching cascade over both source pools:
// GTIN equality, then JAN equality, then name+capacity fallback. Later
// stages run only when all earlier stages found zero matches anywhere.
// Malformed products and empty pools degrade to an empty result with
// warnings, never an error.
func (m *ProductMatcher) MatchProduct(product domain.ProductInfo, rakutenListings, amazonListings []domain.SourceListing) domain.MatchingResult {
	result := domain.MatchingResult{
		ProductID:        product.ID,
		Matches:          []domain.ProductMatch{},
		BestMatches:      []domain.ProductMatch{},
		SourceConfidence: make(map[domain.SourceTag]float64),
	}

	pools := []sourcePool{
		{domain.SourceRakuten, rakutenListings},
		{domain.SourceAmazon, amazonListings},
	}

	if len(rakutenListings) == 0 && len(amazonListings) == 0 {
		result.Warnings = append(result.Warnings, "no listings provided for any source")
		return result
	}

	matches := m.matchByIdentifier(product, pools, domain.MatchTypeGTIN)
	if len(matches) == 0 {
		matches = m.matchByIdentifier(product, pools, domain.MatchTypeJAN)
	}
	if len(matches) == 0 {
		for _, pool := range pools {
			matches = append(matches, m.matchByNameAndCapacity(product, pool.tag, pool.listings)...)
		}
		if len(matches) == 0 {
			result.Warnings = append(result.Warnings, "no identifier or name/capacity match found")
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	result.Matches = matches

	// Highest-confidence candidate per source, in fixed source order
	for _, tag := range domain.AllSources {
		for _, match := range matches {
			if match.Source == tag {
				result.BestMatches = append(result.BestMatches, match)
				result.SourceConfidence[tag] = match.Confidence
				break
			}
		}
	}

	if len(result.BestMatches) > 0 {
		sum := 0.0
		for _, match := range result.BestMatches {
			sum += match.Confidence
		}
		result.OverallConfidence = sum / float64(len(result.BestMatches))
	}

	if low := countBelow(matches, m.mediumConfidence); low > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d candidate match(es) below medium confidence %.1f", low, m.mediumConfidence))
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] %q: %d candidates, %d best, overall=%.2f",
			product.Name, len(result.Matches), len(result.BestMatches), result.OverallConfidence)
	}

	return result
}

// matchByIdentifier finds exact GTIN or JAN matches across both pools.
// Identifier matches carry confidence exactly 1.0; the subsidiary name,
// brand and capacity scores are recorded as diagnostics only.
func (m *ProductMatcher) matchByIdentifier(product domain.ProductInfo, pools []sourcePool, matchType domain.MatchType) []domain.ProductMatch {
	productID := product.GTIN
	if matchType == domain.MatchTypeJAN {
		productID = product.JAN
	}
	if productID == "" {
		return nil
	}

	var matches []domain.ProductMatch
	for _, pool := range pools {
		for i := range pool.listings {
			listing := &pool.listings[i]
			listingID := listing.GTIN
			if matchType == domain.MatchTypeJAN {
				listingID = listing.JAN
			}
			if listingID == "" || listingID != productID {
				continue
			}

			details := m.evaluateSignals(product, listing)
			details.GTINMatch = matchType == domain.MatchTypeGTIN
			details.JANMatch = matchType == domain.MatchTypeJAN

			matches = append(matches, domain.ProductMatch{
				ProductID:  product.ID,
				Source:     pool.tag,
				ListingID:  listing.Code,
				Confidence: 1.0,
				MatchType:  matchType,
				Listing:    listing,
				Details:    details,
			})
		}
	}
	return matches
}

// matchByNameAndCapacity is the fallback stage: a listing must carry the
// same capacity unit within tolerance, and clear both the name-similarity
// and overall-confidence floors, to be accepted.
func (m *ProductMatcher) matchByNameAndCapacity(product domain.ProductInfo, tag domain.SourceTag, listings []domain.SourceListing) []domain.ProductMatch {
	wantUnit := canonicalUnit(product.Capacity.Unit)
	if product.Capacity.Amount <= 0 || product.Name == "" {
		return nil
	}

	var matches []domain.ProductMatch
	for i := range listings {
		listing := &listings[i]

		capacity, found := extractCapacityForUnit(listing.Name, wantUnit)
		if !found || capacity.Unit != wantUnit {
			continue
		}
		if math.Abs(capacity.Amount-product.Capacity.Amount) > product.Capacity.Amount*m.capacityTolerance {
			continue
		}

		details := m.evaluateSignals(product, listing)
		details.CapacityMatch = true

		confidence := m.fallbackConfidence(product, details)
		if details.NameScore < m.minNameSimilarity || confidence < m.minConfidence {
			if m.enableDebugLogging {
				log.Printf("[MATCH] reject %s/%s: name=%.2f confidence=%.2f",
					tag, listing.Code, details.NameScore, confidence)
			}
			continue
		}

		matches = append(matches, domain.ProductMatch{
			ProductID:  product.ID,
			Source:     tag,
			ListingID:  listing.Code,
			Confidence: confidence,
			MatchType:  domain.MatchTypeNameCapacity,
			Listing:    listing,
			Details:    details,
		})
	}
	return matches
}

// evaluateSignals computes the subsidiary match signals used both as
// fallback confidence inputs and as identifier-match diagnostics.
func (m *ProductMatcher) evaluateSignals(product domain.ProductInfo, listing *domain.SourceListing) domain.MatchDetails {
	details := domain.MatchDetails{
		NameScore:  nameSimilarity(product.Name, listing.Name),
		BrandMatch: brandMatches(product.Brand, listing.ShopName),
	}

	if product.Category != "" {
		details.CategoryMatch = containsFold(listing.Name, product.Category)
	}

	wantUnit := canonicalUnit(product.Capacity.Unit)
	if capacity, found := extractCapacityForUnit(listing.Name, wantUnit); found {
		details.CapacityMatch = capacity.Unit == wantUnit &&
			product.Capacity.Amount > 0 &&
			math.Abs(capacity.Amount-product.Capacity.Amount) <= product.Capacity.Amount*m.capacityTolerance
	}

	return details
}

// fallbackConfidence is the weighted mean over the signals evaluated for a
// name+capacity match. Name and capacity are always evaluated on this path;
// brand and category join only when the product declares them.
func (m *ProductMatcher) fallbackConfidence(product domain.ProductInfo, details domain.MatchDetails) float64 {
	numerator := weightName*details.NameScore + weightCapacity*boolScore(details.CapacityMatch)
	denominator := weightName + weightCapacity

	if product.Brand != "" {
		numerator += weightBrand * boolScore(details.BrandMatch)
		denominator += weightBrand
	}
	if product.Category != "" {
		numerator += weightCategory * boolScore(details.CategoryMatch)
		denominator += weightCategory
	}

	return numerator / denominator
}

// ValidateMatch is a standalone guard that callers may reapply to matches
// obtained elsewhere (e.g. from a cache). Identifier matches are always
// valid; name+capacity matches require the capacity flag and the
// confidence floor; everything else is invalid.
func (m *ProductMatcher) ValidateMatch(match domain.ProductMatch, product domain.ProductInfo) bool {
	switch match.MatchType {
	case domain.MatchTypeGTIN, domain.MatchTypeJAN:
		return true
	case domain.MatchTypeNameCapacity:
		return match.Details.CapacityMatch && match.Confidence >= m.minConfidence
	default:
		return false
	}
}

// nameSimilarity is a normalized Levenshtein similarity between two display
// names: 1 - distance/maxLen, and 1.0 when both normalize to empty.
func nameSimilarity(name1, name2 string) float64 {
	n1 := normalizeProductName(name1)
	n2 := normalizeProductName(name2)

	len1 := len([]rune(n1))
	len2 := len([]rune(n2))
	if len1 == 0 && len2 == 0 {
		return 1.0
	}

	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}
	distance := levenshteinDistance(n1, n2)
	return 1.0 - float64(distance)/float64(maxLen)
}

// brandMatches checks case-insensitive substring containment in either
// direction between the declared brand and the listing's seller name
func brandMatches(brand, shopName string) bool {
	if brand == "" || shopName == "" {
		return false
	}
	return containsFold(brand, shopName) || containsFold(shopName, brand)
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// levenshteinDistance calculates the edit distance between two strings
// using two rows instead of a full matrix
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	n := len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func boolScore(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func countBelow(matches []domain.ProductMatch, threshold float64) int {
	count := 0
	for _, match := range matches {
		if match.Confidence < threshold {
			count++
		}
	}
	return count
}
