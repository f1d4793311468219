package analysis

import (
	"strings"

	"engage_server/core/domain"
)

// =============================================================================
// Content Scorer (Stage 2)
// =============================================================================

// intentScoreDivisor normalizes the weighted term sum into [0,1].
const intentScoreDivisor = 100.0

// categoryEntry pairs a category with its indicator keywords. Declaration
// order is the tie-break: when two categories score equally, the earlier
// one wins.
type categoryEntry struct {
	name     string
	keywords []string
}

var categoryTable = []categoryEntry{
	{"technology", []string{"tech", "software", "computer", "laptop", "phone", "gadget", "digital", "electronic", "device", "camera", "headphone", "wireless"}},
	{"health", []string{"health", "fitness", "wellness", "vitamin", "supplement", "exercise", "workout", "diet", "nutrition", "sleep"}},
	{"fashion", []string{"fashion", "clothing", "dress", "style", "shoes", "outfit", "apparel", "jacket", "jeans", "accessor"}},
	{"home", []string{"home", "kitchen", "furniture", "decor", "garden", "appliance", "bedding", "cleaning", "lighting"}},
	{"travel", []string{"travel", "flight", "hotel", "vacation", "trip", "luggage", "destination", "tour", "resort"}},
	{"food", []string{"food", "recipe", "cooking", "restaurant", "meal", "ingredient", "snack", "coffee", "baking"}},
	{"beauty", []string{"beauty", "makeup", "skincare", "cosmetic", "hair", "fragrance", "serum", "lotion"}},
	{"sports", []string{"sport", "outdoor", "bike", "running", "golf", "camping", "hiking", "gear", "training"}},
	{"books", []string{"book", "novel", "author", "reading", "literature", "magazine", "audiobook"}},
	{"automotive", []string{"car", "auto", "vehicle", "tire", "engine", "motorcycle", "truck", "driving"}},
	{"finance", []string{"finance", "money", "invest", "loan", "credit", "insurance", "bank", "budget", "saving"}},
	{"education", []string{"education", "course", "learn", "study", "tutorial", "school", "certification"}},
}

var positiveWords = map[string]struct{}{
	"great": {}, "excellent": {}, "amazing": {}, "awesome": {}, "fantastic": {},
	"wonderful": {}, "love": {}, "perfect": {}, "impressive": {}, "outstanding": {},
	"superb": {}, "comfortable": {}, "reliable": {}, "solid": {}, "happy": {},
	"beautiful": {}, "favorite": {}, "enjoyable": {}, "smooth": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "poor": {}, "terrible": {}, "awful": {}, "horrible": {},
	"worst": {}, "disappointing": {}, "broken": {}, "waste": {}, "useless": {},
	"defective": {}, "flimsy": {}, "uncomfortable": {}, "hate": {},
	"frustrating": {}, "annoying": {}, "unreliable": {}, "overpriced": {},
}

// ContentScorer combines keyword matches into a normalized intent score
// and assigns a topical category and sentiment. Pure computation; safe
// for concurrent use.
type ContentScorer struct{}

// NewContentScorer creates a new content scorer.
func NewContentScorer() *ContentScorer {
	return &ContentScorer{}
}

// IntentScore computes min(Σ occurrences(term) × weight(term) / 100, 1)
// over the full lower-cased text, counting by substring.
func (s *ContentScorer) IntentScore(text string) float64 {
	if text == "" {
		return 0
	}

	lowered := strings.ToLower(text)
	sum := 0
	for term, weight := range intentWeights {
		sum += strings.Count(lowered, term) * weight
	}

	score := float64(sum) / intentScoreDivisor
	if score > 1 {
		return 1
	}
	return score
}

// Category picks the category whose keyword list has the most substring
// hits against the extracted keywords. Ties break by declaration order;
// no hits at all falls back to "general".
func (s *ContentScorer) Category(keywords []string) string {
	bestName := domain.CategoryGeneral
	bestHits := 0

	for _, entry := range categoryTable {
		hits := 0
		for _, ck := range entry.keywords {
			for _, kw := range keywords {
				if strings.Contains(kw, ck) {
					hits++
				}
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestName = entry.name
		}
	}

	return bestName
}

// Sentiment counts positive versus negative indicator tokens; the
// majority wins and a tie is neutral.
func (s *ContentScorer) Sentiment(text string) domain.Sentiment {
	positive := 0
	negative := 0

	for _, token := range Tokenize(text) {
		if _, ok := positiveWords[token]; ok {
			positive++
		}
		if _, ok := negativeWords[token]; ok {
			negative++
		}
	}

	switch {
	case positive > negative:
		return domain.SentimentPositive
	case negative > positive:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
