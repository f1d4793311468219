package domain

// =============================================================================
// Product - affiliate catalog entry (read-only input to the core)
// =============================================================================

// Product is a candidate affiliate product. The catalog that owns these
// records lives outside the recommendation core; the core never writes them.
type Product struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	CommissionRate float64 `json:"commission_rate"`
	AffiliateURL   string  `json:"affiliate_url"`
}

// Promotable reports whether the product has the minimum data quality to
// be ranked at all: a positive price, a positive commission and a working
// affiliate link. Rows failing this are silently excluded, never reported
// as errors.
func (p *Product) Promotable() bool {
	return p.Price > 0 && p.CommissionRate > 0 && p.AffiliateURL != ""
}

// ScoredProduct is a product plus its relevance for one request.
// It is recomputed per request and never persisted.
type ScoredProduct struct {
	Product
	RelevanceScore float64 `json:"relevance_score"`
}

// RecommendationSet is an ordered list of scored products; insertion order
// is rank (descending combined score). Capped at MaxRecommendations.
type RecommendationSet []ScoredProduct

const (
	// MaxRecommendations caps a recommendation set for high-intent pages.
	MaxRecommendations = 5
	// DefaultRecommendations is the cap for moderate-intent pages.
	DefaultRecommendations = 3
)

// RecommendationLimit returns how many products to surface for a given
// intent score.
func RecommendationLimit(intentScore float64) int {
	if intentScore > 0.8 {
		return MaxRecommendations
	}
	return DefaultRecommendations
}

// ProductIDs returns the ids in rank order.
func (s RecommendationSet) ProductIDs() []int64 {
	ids := make([]int64, 0, len(s))
	for _, p := range s {
		ids = append(ids, p.ID)
	}
	return ids
}

// MaxCommission returns the highest commission rate in the set, or 0 for
// an empty set.
func (s RecommendationSet) MaxCommission() float64 {
	max := 0.0
	for _, p := range s {
		if p.CommissionRate > max {
			max = p.CommissionRate
		}
	}
	return max
}
