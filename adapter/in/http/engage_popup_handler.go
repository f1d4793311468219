package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/core/service/popup"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
	"engage_server/pkg/snowflake"
)

// PopupHandler serves stored popup configurations and runs the
// server-side display gate for the embed script.
type PopupHandler struct {
	cache  out.Cache
	freq   out.FrequencyStore
	events out.EventProducer
	gen    *snowflake.Generator
	log    *logger.Logger
}

// NewPopupHandler creates a new PopupHandler.
func NewPopupHandler(cache out.Cache, freq out.FrequencyStore, events out.EventProducer, gen *snowflake.Generator) *PopupHandler {
	return &PopupHandler{
		cache:  cache,
		freq:   freq,
		events: events,
		gen:    gen,
		log:    logger.Default().WithField("component", "popup_handler"),
	}
}

// Register registers popup routes.
func (h *PopupHandler) Register(router fiber.Router) {
	popups := router.Group("/popups")
	popups.Get("/:id", h.Get)
	popups.Post("/decide", h.Decide)
}

// Get returns a stored popup configuration by id.
// @Summary Get popup configuration
// @Tags Popups
// @Produce json
// @Router /api/v1/popups/{id} [get]
func (h *PopupHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid popup id")
	}

	var cfg domain.PopupConfig
	found, err := h.cache.GetJSON(c.Context(), fmt.Sprintf(popupCacheKeyFmt, int64(id)), &cfg)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load popup config")
		return response.Error(c, 500, apperr.CodeStorageError, "failed to load popup")
	}
	if !found {
		return response.NotFound(c, "popup not found or expired")
	}

	return response.OK(c, &cfg)
}

// DecideRequest asks whether a previously issued popup may be shown to
// this visitor right now.
type DecideRequest struct {
	PopupID int64  `json:"popup_id"`
	URL     string `json:"url"`
}

// DecideResponse is the display gate verdict. When Displayed is true the
// popup had no wait conditions and the display was already recorded
// server side; the embed renders immediately and must not re-report it.
// Otherwise, when Show is true, the embed enforces Trigger locally and
// reports the display through /track.
type DecideResponse struct {
	Show      bool                `json:"show"`
	Displayed bool                `json:"displayed"`
	Trigger   *domain.TriggerRule `json:"trigger,omitempty"`
}

// Decide runs the frequency gate for one popup/visitor pair.
// @Summary Decide popup display eligibility
// @Tags Popups
// @Accept json
// @Produce json
// @Router /api/v1/popups/decide [post]
func (h *PopupHandler) Decide(c *fiber.Ctx) error {
	var req DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}
	if req.PopupID <= 0 {
		return response.Error(c, 400, apperr.CodeMissingField, "popup_id is required")
	}

	var cfg domain.PopupConfig
	found, err := h.cache.GetJSON(c.Context(), fmt.Sprintf(popupCacheKeyFmt, req.PopupID), &cfg)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load popup config")
		return response.Error(c, 500, apperr.CodeStorageError, "failed to load popup")
	}
	if !found {
		return response.NotFound(c, "popup not found or expired")
	}

	visitorID := VisitorID(c)
	sessionID := SessionID(c)

	coord := popup.NewCoordinator(&cfg, visitorID, sessionID, req.URL, h.freq, h.events, h.gen.MustGenerate)
	armed, err := coord.Arm(c.Context())
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to arm popup")
		return response.Error(c, 500, apperr.CodeInternalError, "failed to arm popup")
	}

	if coord.State() == popup.StateDisplayed {
		// No wait conditions: displayed and recorded here.
		return response.OK(c, DecideResponse{Show: true, Displayed: true})
	}

	if !armed {
		// Display cap or cooldown rejection.
		return response.OK(c, DecideResponse{Show: false})
	}

	// The embed owns the trigger conditions from here; release the
	// server-side machine so its timer doesn't fire into the void.
	coord.Abort()
	trigger := cfg.Trigger
	return response.OK(c, DecideResponse{Show: true, Trigger: &trigger})
}
