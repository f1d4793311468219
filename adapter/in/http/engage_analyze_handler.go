package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/core/service/analysis"
	"engage_server/core/service/automation"
	"engage_server/core/service/popup"
	"engage_server/core/service/recommend"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
)

const (
	popupCacheKeyFmt = "popup:%d"
	popupCacheTTL    = 24 * time.Hour

	// Rule evaluation runs detached from the request; bound it so a
	// slow dispatcher can't leak goroutines.
	ruleEvalTimeout = 30 * time.Second
)

// AnalyzeHandler runs the full analyze → recommend → decide pipeline for
// one page of publisher content.
type AnalyzeHandler struct {
	analyzer    *analysis.Analyzer
	recommender *recommend.Recommender
	policy      *popup.PolicyEngine
	evaluator   *automation.Evaluator
	cache       out.Cache
	log         *logger.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler. evaluator may be nil
// when automation rules are disabled.
func NewAnalyzeHandler(
	analyzer *analysis.Analyzer,
	recommender *recommend.Recommender,
	policy *popup.PolicyEngine,
	evaluator *automation.Evaluator,
	cache out.Cache,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		recommender: recommender,
		policy:      policy,
		evaluator:   evaluator,
		cache:       cache,
		log:         logger.Default().WithField("component", "analyze_handler"),
	}
}

// Register registers analyze routes.
func (h *AnalyzeHandler) Register(router fiber.Router) {
	router.Post("/analyze", h.Analyze)
}

// AnalyzeRequest is the page snapshot the embed script submits.
type AnalyzeRequest struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AnalyzeResponse carries the scored analysis, the ranked products and
// the popup decision. Popup is null when the page didn't clear the
// intent threshold.
type AnalyzeResponse struct {
	Analysis            *domain.ContentAnalysis  `json:"analysis"`
	RecommendedProducts domain.RecommendationSet `json:"recommended_products"`
	ShouldShowPopup     bool                     `json:"should_show_popup"`
	Popup               *domain.PopupConfig      `json:"popup,omitempty"`
}

// Analyze scores a page, ranks recommendations and decides whether a
// popup should be offered.
// @Summary Analyze page content
// @Tags Analysis
// @Accept json
// @Produce json
// @Router /api/v1/analyze [post]
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}
	if req.Content == "" {
		return response.Error(c, 400, apperr.CodeMissingField, "content is required")
	}

	visitorID := VisitorID(c)
	sessionID := SessionID(c)

	result := h.analyzer.Analyze(c.Context(), req.URL, req.Title, req.Content)
	recs := h.recommender.Recommend(c.Context(), result, visitorID, sessionID)

	cfg, err := h.policy.Decide(c.Context(), result, recs, visitorID)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("popup decision failed")
		return response.Error(c, 500, apperr.CodeInternalError, "popup decision failed")
	}

	if cfg != nil {
		key := fmt.Sprintf(popupCacheKeyFmt, cfg.ID)
		if err := h.cache.SetJSON(c.Context(), key, cfg, popupCacheTTL); err != nil {
			h.log.WithContext(c.Context()).WithError(err).Error("failed to cache popup config")
			return response.Error(c, 500, apperr.CodeStorageError, "failed to store popup")
		}
	}

	// Rule evaluation is publisher-facing automation, not part of the
	// embed's critical path.
	if h.evaluator != nil {
		go func(a *domain.ContentAnalysis, r domain.RecommendationSet) {
			ctx, cancel := context.WithTimeout(context.Background(), ruleEvalTimeout)
			defer cancel()
			h.evaluator.EvaluateAll(ctx, a, r)
		}(result, recs)
	}

	return response.OK(c, AnalyzeResponse{
		Analysis:            result,
		RecommendedProducts: recs,
		ShouldShowPopup:     result.ShouldShowPopup(),
		Popup:               cfg,
	})
}
