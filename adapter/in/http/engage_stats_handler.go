package http

import (
	"github.com/gofiber/fiber/v2"

	"engage_server/adapter/out/mongodb"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
)

const defaultTopPagesLimit = 20

// StatsHandler serves the aggregated popup analytics to the publisher
// dashboard.
type StatsHandler struct {
	analytics *mongodb.AnalyticsAdapter
	log       *logger.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(analytics *mongodb.AnalyticsAdapter) *StatsHandler {
	return &StatsHandler{
		analytics: analytics,
		log:       logger.Default().WithField("component", "stats_handler"),
	}
}

// Register registers analytics routes.
func (h *StatsHandler) Register(router fiber.Router) {
	stats := router.Group("/stats")
	stats.Get("/pages", h.Pages)
}

// Pages returns per-page popup aggregates, either for one url or the
// top pages by display count.
// @Summary Page popup statistics
// @Tags Stats
// @Produce json
// @Router /api/v1/stats/pages [get]
func (h *StatsHandler) Pages(c *fiber.Ctx) error {
	if url := c.Query("url"); url != "" {
		stats, err := h.analytics.GetByURL(c.Context(), url)
		if err != nil {
			h.log.WithContext(c.Context()).WithError(err).Error("failed to load page stats")
			return response.Error(c, 500, apperr.CodeDatabaseError, "failed to load page stats")
		}
		return response.OKWithMeta(c, stats, &response.Meta{Total: len(stats)})
	}

	limit := c.QueryInt("limit", defaultTopPagesLimit)
	stats, err := h.analytics.TopPages(c.Context(), limit)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load top pages")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to load top pages")
	}
	return response.OKWithMeta(c, stats, &response.Meta{Total: len(stats)})
}
