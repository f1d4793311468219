package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// =============================================================================
// ContentAnalysis - scored snapshot of a single page's text
// =============================================================================

// Sentiment classifies the overall tone of a page.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ContentAnalysis is the result of analyzing one page of content.
// It is created once per unique text (keyed by Hash) and never mutated
// afterwards; callers treat it as a value.
type ContentAnalysis struct {
	Hash        string    `json:"hash"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Keywords    []string  `json:"keywords"`
	IntentScore float64   `json:"intent_score"`
	Category    string    `json:"category"`
	Sentiment   Sentiment `json:"sentiment"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

// ShouldShowPopup reports whether the buying intent is strong enough
// to justify surfacing a popup on this page.
func (a *ContentAnalysis) ShouldShowPopup() bool {
	return a.IntentScore > 0.6
}

// ContentHash computes the stable identity of a piece of page text.
// Identical text always hashes to the same value, which lets analysis
// results be memoized.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DegradedAnalysis returns the safe fallback result used when extraction
// or scoring fails. Popup suppression is the safe default, so the intent
// score is zero.
func DegradedAnalysis(url, title string, now time.Time) *ContentAnalysis {
	return &ContentAnalysis{
		Hash:        ContentHash(""),
		URL:         url,
		Title:       title,
		Keywords:    []string{},
		IntentScore: 0,
		Category:    CategoryGeneral,
		Sentiment:   SentimentNeutral,
		AnalyzedAt:  now,
	}
}

// CategoryGeneral is assigned when no topical category matches.
const CategoryGeneral = "general"
