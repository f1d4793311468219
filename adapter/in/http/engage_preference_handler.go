package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
)

// PreferenceHandler lets a visitor read and set their popup preferences.
type PreferenceHandler struct {
	prefs out.PreferenceRepository
	log   *logger.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(prefs out.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{
		prefs: prefs,
		log:   logger.Default().WithField("component", "preference_handler"),
	}
}

// Register registers preference routes.
func (h *PreferenceHandler) Register(router fiber.Router) {
	prefs := router.Group("/preferences")
	prefs.Get("/", h.Get)
	prefs.Put("/", h.Update)
}

// PreferenceRequest is the visitor-settable part of the preferences.
type PreferenceRequest struct {
	NonAggressive bool `json:"non_aggressive"`
}

// Get returns the visitor's stored preferences, or the defaults when
// nothing is stored yet.
// @Summary Get visitor preferences
// @Tags Preferences
// @Produce json
// @Router /api/v1/preferences [get]
func (h *PreferenceHandler) Get(c *fiber.Ctx) error {
	visitorID := VisitorID(c)
	if visitorID == uuid.Nil {
		return response.Error(c, 400, apperr.CodeMissingField, "visitor id header is required")
	}

	prefs, err := h.prefs.Get(c.Context(), visitorID)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load preferences")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to load preferences")
	}
	if prefs == nil {
		prefs = domain.DefaultPreferences(visitorID)
	}
	return response.OK(c, prefs)
}

// Update sets the visitor's non-aggressive flag.
// @Summary Update visitor preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Router /api/v1/preferences [put]
func (h *PreferenceHandler) Update(c *fiber.Ctx) error {
	visitorID := VisitorID(c)
	if visitorID == uuid.Nil {
		return response.Error(c, 400, apperr.CodeMissingField, "visitor id header is required")
	}

	var req PreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}

	// Keep the dismiss counter; only the explicit flag changes.
	existing, err := h.prefs.Get(c.Context(), visitorID)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load preferences")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to load preferences")
	}
	if existing == nil {
		existing = domain.DefaultPreferences(visitorID)
	}
	existing.NonAggressive = req.NonAggressive
	existing.UpdatedAt = time.Now().UTC()

	if err := h.prefs.Upsert(c.Context(), existing); err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to store preferences")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to store preferences")
	}
	return response.OK(c, existing)
}
