// Package recommend ranks affiliate products against analyzed content and
// visitor behavior.
package recommend

import (
	"sort"
	"strings"

	"engage_server/core/domain"
)

// =============================================================================
// Product Matcher (content-based source)
// =============================================================================

// Relevance weights. Keyword hits dominate, category alignment adds a
// fixed bonus and commission acts as a slight economic tie-breaker.
const (
	keywordHitWeight     = 4.0
	categoryExactBonus   = 5.0
	categoryPartialBonus = 4.0
	commissionWeight     = 0.15
)

// Matcher computes per-product relevance for one analyzed page.
// Stateless and safe for concurrent use.
type Matcher struct{}

// NewMatcher creates a new product matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match filters and ranks candidates. Products missing a price, a
// commission or an affiliate URL are excluded before ranking so they
// never consume a top-N slot. The result is capped by the intent score:
// five products for high-intent pages, three otherwise.
func (m *Matcher) Match(candidates []domain.Product, keywords []string, category string, intentScore float64) domain.RecommendationSet {
	scored := make(domain.RecommendationSet, 0, len(candidates))

	for _, p := range candidates {
		if !p.Promotable() {
			continue
		}
		scored = append(scored, domain.ScoredProduct{
			Product:        p,
			RelevanceScore: m.relevance(&p, keywords, category),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	limit := domain.RecommendationLimit(intentScore)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// relevance scores one product against the page signals.
func (m *Matcher) relevance(p *domain.Product, keywords []string, category string) float64 {
	haystack := strings.ToLower(p.Name + " " + p.Description)

	hits := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			hits++
		}
	}

	score := keywordHitWeight * float64(hits)

	productCategory := strings.ToLower(p.Category)
	pageCategory := strings.ToLower(category)
	switch {
	case productCategory != "" && productCategory == pageCategory:
		score += categoryExactBonus
	case productCategory != "" && pageCategory != "" &&
		(strings.Contains(productCategory, pageCategory) || strings.Contains(pageCategory, productCategory)):
		score += categoryPartialBonus
	}

	score += commissionWeight * p.CommissionRate

	return score
}
