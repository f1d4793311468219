package analysis

import (
	"context"
	"fmt"
	"time"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"
)

const analysisCacheKeyFmt = "analysis:%s"

// Config holds analyzer configuration.
type Config struct {
	CacheTTL time.Duration
}

// DefaultConfig returns analyzer defaults.
func DefaultConfig() *Config {
	return &Config{CacheTTL: 6 * time.Hour}
}

// Analyzer runs the extraction and scoring pipeline for a page of text.
// Results are memoized by content hash: re-analyzing identical text is a
// cache read. The analyzer never fails; malformed or empty input degrades
// to the zero-intent result so the popup stays suppressed.
type Analyzer struct {
	extractor *KeywordExtractor
	scorer    *ContentScorer
	cache     out.Cache
	cfg       *Config
	log       *logger.Logger
	now       func() time.Time
}

// NewAnalyzer creates a new analyzer. cache may be nil, in which case
// memoization is skipped.
func NewAnalyzer(cache out.Cache, cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Analyzer{
		extractor: NewKeywordExtractor(),
		scorer:    NewContentScorer(),
		cache:     cache,
		cfg:       cfg,
		log:       logger.Default().WithField("component", "analyzer"),
		now:       time.Now,
	}
}

// Analyze scores a page of content. It always returns a usable result.
func (a *Analyzer) Analyze(ctx context.Context, url, title, content string) *domain.ContentAnalysis {
	if content == "" {
		return domain.DegradedAnalysis(url, title, a.now().UTC())
	}

	hash := domain.ContentHash(content)

	if a.cache != nil {
		var cached domain.ContentAnalysis
		hit, err := a.cache.GetJSON(ctx, fmt.Sprintf(analysisCacheKeyFmt, hash), &cached)
		if err != nil {
			a.log.WithError(err).Warn("analysis cache read failed for hash %s", hash)
		} else if hit {
			return &cached
		}
	}

	result := a.analyze(url, title, content, hash)

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, fmt.Sprintf(analysisCacheKeyFmt, hash), result, a.cfg.CacheTTL); err != nil {
			a.log.WithError(err).Warn("analysis cache write failed for hash %s", hash)
		}
	}

	return result
}

func (a *Analyzer) analyze(url, title, content, hash string) *domain.ContentAnalysis {
	// Title terms count toward intent and keywords; headlines are where
	// commercial phrasing concentrates.
	text := content
	if title != "" {
		text = title + " " + content
	}

	keywords := a.extractor.Extract(text)

	return &domain.ContentAnalysis{
		Hash:        hash,
		URL:         url,
		Title:       title,
		Keywords:    keywords,
		IntentScore: a.scorer.IntentScore(text),
		Category:    a.scorer.Category(keywords),
		Sentiment:   a.scorer.Sentiment(text),
		AnalyzedAt:  a.now().UTC(),
	}
}
