package recommend

import (
	"sort"

	"engage_server/core/domain"
)

// =============================================================================
// Recommendation Combiner
// =============================================================================

// Source weights. Content relevance carries the most signal, explicit
// click history more than ambient session views. A product present in
// all three sources scores exactly 1.0.
const (
	weightContent = 0.5
	weightHistory = 0.3
	weightSession = 0.2
)

// Combiner merges recommendation lists from independent sources into a
// single ranked set. Stateless and safe for concurrent use.
type Combiner struct{}

// NewCombiner creates a new combiner.
func NewCombiner() *Combiner {
	return &Combiner{}
}

// Combine blends the three sources by presence weighting: each source a
// product appears in adds that source's fixed weight, so a product found
// in all three lands at exactly 1.0 and cross-source products rank above
// single-source ones. Per-source relevance only influences ordering
// within a source, via the first-seen tiebreak. Sources are merged
// content first, then history, then session.
func (c *Combiner) Combine(content, history, session domain.RecommendationSet, limit int) domain.RecommendationSet {
	type entry struct {
		product domain.Product
		score   float64
		order   int
	}

	merged := make(map[int64]*entry)
	order := 0

	absorb := func(set domain.RecommendationSet, weight float64) {
		for _, sp := range set {
			if e, ok := merged[sp.ID]; ok {
				e.score += weight
				continue
			}
			merged[sp.ID] = &entry{
				product: sp.Product,
				score:   weight,
				order:   order,
			}
			order++
		}
	}

	absorb(content, weightContent)
	absorb(history, weightHistory)
	absorb(session, weightSession)

	entries := make([]*entry, 0, len(merged))
	for _, e := range merged {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].order < entries[j].order
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	result := make(domain.RecommendationSet, 0, len(entries))
	for _, e := range entries {
		result = append(result, domain.ScoredProduct{
			Product:        e.product,
			RelevanceScore: e.score,
		})
	}
	return result
}
