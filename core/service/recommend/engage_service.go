package recommend

import (
	"context"

	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"
)

// Config holds recommendation tuning knobs.
type Config struct {
	// HistoryLimit caps products pulled from the visitor click history.
	HistoryLimit int
	// SessionLimit caps products pulled from the current session trail.
	SessionLimit int
}

// DefaultConfig returns recommender defaults.
func DefaultConfig() *Config {
	return &Config{HistoryLimit: 10, SessionLimit: 10}
}

// Recommender assembles the final product list for a page view. It runs
// three sources and blends them: content relevance from the analyzed
// page, the visitor's cross-session click history, and the current
// session's view trail. Any source failing degrades to an empty
// contribution; a recommendation request never errors out.
type Recommender struct {
	catalog  out.ProductCatalog
	history  out.HistoryStore
	sessions out.SessionStore
	matcher  *Matcher
	combiner *Combiner
	cfg      *Config
	log      *logger.Logger
}

// NewRecommender creates a recommender. history and sessions may be nil,
// in which case those sources contribute nothing.
func NewRecommender(catalog out.ProductCatalog, history out.HistoryStore, sessions out.SessionStore, cfg *Config) *Recommender {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Recommender{
		catalog:  catalog,
		history:  history,
		sessions: sessions,
		matcher:  NewMatcher(),
		combiner: NewCombiner(),
		cfg:      cfg,
		log:      logger.Default().WithField("component", "recommender"),
	}
}

// Recommend returns the blended, ranked product set for an analyzed page.
// visitorID and sessionID may be uuid.Nil for anonymous first-touch
// traffic, which skips the corresponding sources.
func (r *Recommender) Recommend(ctx context.Context, analysis *domain.ContentAnalysis, visitorID, sessionID uuid.UUID) domain.RecommendationSet {
	content := r.contentSource(ctx, analysis)
	history := r.historySource(ctx, visitorID)
	session := r.sessionSource(ctx, sessionID)

	limit := domain.RecommendationLimit(analysis.IntentScore)
	return r.combiner.Combine(content, history, session, limit)
}

// contentSource ranks catalog candidates against the page signals.
// Candidates come from the page's category when it has one; the general
// bucket falls back to the full active catalog.
func (r *Recommender) contentSource(ctx context.Context, analysis *domain.ContentAnalysis) domain.RecommendationSet {
	var (
		candidates []domain.Product
		err        error
	)
	if analysis.Category != "" && analysis.Category != domain.CategoryGeneral {
		candidates, err = r.catalog.ListByCategory(ctx, analysis.Category)
		if err == nil && len(candidates) == 0 {
			candidates, err = r.catalog.ListActive(ctx)
		}
	} else {
		candidates, err = r.catalog.ListActive(ctx)
	}
	if err != nil {
		r.log.WithContext(ctx).WithError(err).Warn("content source unavailable, skipping")
		return nil
	}
	return r.matcher.Match(candidates, analysis.Keywords, analysis.Category, analysis.IntentScore)
}

// historySource turns the visitor's strongest past clicks into scored
// products. Rank position is the only signal history carries, so the
// score decays linearly from the top.
func (r *Recommender) historySource(ctx context.Context, visitorID uuid.UUID) domain.RecommendationSet {
	if r.history == nil || visitorID == uuid.Nil {
		return nil
	}
	ids, err := r.history.TopProductsForVisitor(ctx, visitorID, r.cfg.HistoryLimit)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).Warn("history source unavailable, skipping")
		return nil
	}
	return r.resolveRanked(ctx, ids, "history")
}

// sessionSource mirrors historySource for the in-session view trail.
func (r *Recommender) sessionSource(ctx context.Context, sessionID uuid.UUID) domain.RecommendationSet {
	if r.sessions == nil || sessionID == uuid.Nil {
		return nil
	}
	ids, err := r.sessions.RecentViewed(ctx, sessionID, r.cfg.SessionLimit)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).Warn("session source unavailable, skipping")
		return nil
	}
	return r.resolveRanked(ctx, ids, "session")
}

// resolveRanked loads products for an ordered id list and assigns
// positional scores: the first id gets a score of len(ids), the last
// gets 1. Products that fail Promotable or no longer exist drop out.
func (r *Recommender) resolveRanked(ctx context.Context, ids []int64, source string) domain.RecommendationSet {
	if len(ids) == 0 {
		return nil
	}
	products, err := r.catalog.GetByIDs(ctx, ids)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).WithField("source", source).Warn("product resolve failed, skipping source")
		return nil
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	set := make(domain.RecommendationSet, 0, len(ids))
	for i, id := range ids {
		p, ok := byID[id]
		if !ok || !p.Promotable() {
			continue
		}
		set = append(set, domain.ScoredProduct{
			Product:        p,
			RelevanceScore: float64(len(ids) - i),
		})
	}
	return set
}
