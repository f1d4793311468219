// Package analysis implements the content scoring pipeline: keyword
// extraction, buying-intent scoring, topical categorization and sentiment.
package analysis

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// Keyword Extraction (Stage 1)
// =============================================================================

// maxKeywords caps the extracted keyword list.
const maxKeywords = 20

// minTokenLength: shorter tokens carry no topical signal.
const minTokenLength = 4

// intentWeights is the fixed table of commercial-intent indicator terms.
// Matching is by substring, so "deals" and "dealbreaker" both hit "deal".
// Weights are tuned so that a headline stacking several strong terms
// crosses the popup threshold.
var intentWeights = map[string]int{
	"buy":        10,
	"purchase":   10,
	"order":      8,
	"deal":       15,
	"discount":   12,
	"coupon":     10,
	"sale":       12,
	"offer":      8,
	"best":       15,
	"review":     12,
	"compare":    10,
	"top":        10,
	"recommend":  10,
	"cheap":      8,
	"bargain":    8,
	"price":      6,
	"affordable": 6,
	"save":       6,
	"worth":      6,
	"quality":    4,
}

// stopWords are discarded during extraction regardless of frequency.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "from": {},
	"your": {}, "have": {}, "more": {}, "will": {}, "about": {}, "they": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "their": {}, "would": {},
	"there": {}, "these": {}, "those": {}, "than": {}, "then": {}, "them": {},
	"some": {}, "into": {}, "could": {}, "other": {}, "after": {}, "first": {},
	"also": {}, "been": {}, "were": {}, "because": {}, "does": {}, "just": {},
	"like": {}, "over": {}, "only": {}, "very": {}, "such": {}, "most": {},
	"much": {}, "many": {}, "each": {}, "while": {}, "before": {}, "being": {},
	"through": {}, "between": {}, "under": {}, "again": {}, "same": {},
	"should": {}, "here": {}, "make": {}, "made": {}, "even": {}, "still": {},
	"every": {}, "both": {}, "well": {}, "back": {}, "down": {}, "around": {},
	"really": {}, "things": {}, "thing": {}, "going": {}, "want": {},
	"need": {}, "know": {}, "take": {}, "come": {}, "good": {}, "look": {},
	"year": {}, "years": {}, "time": {}, "people": {}, "find": {}, "using": {},
	"used": {}, "you're": {}, "it's": {}, "don't": {}, "can't": {},
}

// KeywordExtractor turns raw page text into a ranked keyword list.
// It is pure: identical input always yields an identical ordered list.
type KeywordExtractor struct{}

// NewKeywordExtractor creates a new keyword extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Extract tokenizes text, strips stop words and short tokens, and returns
// up to maxKeywords keywords ordered by (intent-keyword, frequency)
// descending with first occurrence breaking remaining ties.
func (e *KeywordExtractor) Extract(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return []string{}
	}

	type wordStat struct {
		word      string
		frequency int
		isIntent  bool
		firstSeen int
	}

	stats := make(map[string]*wordStat)
	order := make([]*wordStat, 0, len(tokens))

	for i, token := range tokens {
		if len(token) < minTokenLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}

		if s, ok := stats[token]; ok {
			s.frequency++
			continue
		}

		s := &wordStat{
			word:      token,
			frequency: 1,
			isIntent:  IsIntentKeyword(token),
			firstSeen: i,
		}
		stats[token] = s
		order = append(order, s)
	}

	// Intent keywords always outrank pure-frequency keywords, regardless
	// of count.
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.isIntent != b.isIntent {
			return a.isIntent
		}
		if a.frequency != b.frequency {
			return a.frequency > b.frequency
		}
		return a.firstSeen < b.firstSeen
	})

	limit := len(order)
	if limit > maxKeywords {
		limit = maxKeywords
	}

	keywords := make([]string, 0, limit)
	for _, s := range order[:limit] {
		keywords = append(keywords, s.word)
	}
	return keywords
}

// Tokenize lower-cases text, strips punctuation and splits on whitespace.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// IsIntentKeyword reports whether a token carries commercial intent.
// Substring semantics: "deals" matches "deal".
func IsIntentKeyword(word string) bool {
	for term := range intentWeights {
		if strings.Contains(word, term) {
			return true
		}
	}
	return false
}

// IntentWeight returns the weight of an intent term, or 0 for unknown
// terms.
func IntentWeight(term string) int {
	return intentWeights[term]
}
