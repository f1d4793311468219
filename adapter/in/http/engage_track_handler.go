package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
	"engage_server/pkg/snowflake"
)

// trackSideEffectTimeout bounds the detached writes behind /track.
const trackSideEffectTimeout = 5 * time.Second

// TrackHandler ingests popup lifecycle telemetry from the embed script.
// Ingestion is fire-and-forget: the embed gets a 202 as soon as the
// event parses, and publishing plus bookkeeping happen off the request.
type TrackHandler struct {
	producer out.EventProducer
	prefs    out.PreferenceRepository
	freq     out.FrequencyStore
	sessions out.SessionStore
	gen      *snowflake.Generator
	log      *logger.Logger
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(
	producer out.EventProducer,
	prefs out.PreferenceRepository,
	freq out.FrequencyStore,
	sessions out.SessionStore,
	gen *snowflake.Generator,
) *TrackHandler {
	return &TrackHandler{
		producer: producer,
		prefs:    prefs,
		freq:     freq,
		sessions: sessions,
		gen:      gen,
		log:      logger.Default().WithField("component", "track_handler"),
	}
}

// Register registers telemetry routes.
func (h *TrackHandler) Register(router fiber.Router) {
	router.Post("/track", h.Track)
}

// TrackRequest is one lifecycle event reported by the embed script.
type TrackRequest struct {
	EventType   string    `json:"event_type"`
	PopupID     int64     `json:"popup_id"`
	ProductID   int64     `json:"product_id,omitempty"`
	CloseReason string    `json:"close_reason,omitempty"`
	URL         string    `json:"url,omitempty"`
	IntentScore float64   `json:"intent_score,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// Track accepts one telemetry event.
// @Summary Ingest popup telemetry
// @Tags Telemetry
// @Accept json
// @Produce json
// @Router /api/v1/track [post]
func (h *TrackHandler) Track(c *fiber.Ctx) error {
	var req TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}
	if !out.ValidTriggerEventType(req.EventType) {
		return response.Error(c, 400, apperr.CodeInvalidInput, "unknown event_type")
	}
	if req.PopupID <= 0 {
		return response.Error(c, 400, apperr.CodeMissingField, "popup_id is required")
	}

	visitorID := VisitorID(c)
	sessionID := SessionID(c)

	event := &out.TriggerEvent{
		EventID:     h.gen.MustGenerate(),
		EventType:   out.TriggerEventType(req.EventType),
		PopupID:     req.PopupID,
		SessionID:   sessionID.String(),
		ProductID:   req.ProductID,
		CloseReason: req.CloseReason,
		URL:         req.URL,
		IntentScore: req.IntentScore,
		Timestamp:   req.Timestamp,
	}
	if visitorID != uuid.Nil {
		event.VisitorID = visitorID.String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	go h.ingest(event, visitorID, sessionID)

	return response.Accepted(c, fiber.Map{"event_id": event.EventID})
}

// ingest publishes the event and applies its immediate bookkeeping.
// Failures are logged, never surfaced to the embed.
func (h *TrackHandler) ingest(event *out.TriggerEvent, visitorID, sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), trackSideEffectTimeout)
	defer cancel()

	if err := h.producer.PublishTriggerEvent(ctx, event); err != nil {
		h.log.WithError(err).WithField("event_type", string(event.EventType)).Warn("failed to publish trigger event")
	}

	switch event.EventType {
	case out.EventPopupDisplayed:
		// Displays driven by the embed's client-side trigger still count
		// against the frequency cap.
		if visitorID != uuid.Nil {
			if err := h.freq.RecordDisplay(ctx, visitorID, event.PopupID, event.Timestamp); err != nil {
				h.log.WithError(err).Warn("failed to record display")
			}
		}
	case out.EventPopupClosed:
		if visitorID != uuid.Nil && event.CloseReason != string(domain.CloseReasonCTA) {
			if err := h.prefs.IncrementDismissCount(ctx, visitorID); err != nil {
				h.log.WithError(err).Warn("failed to increment dismiss count")
			}
		}
	case out.EventProductClicked:
		if event.ProductID > 0 {
			if err := h.sessions.AppendViewed(ctx, sessionID, event.ProductID); err != nil {
				h.log.WithError(err).Warn("failed to append session trail")
			}
		}
	}
}
