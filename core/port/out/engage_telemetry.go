package out

import (
	"context"
	"time"
)

// Time alias for JSON serialization
type Time = time.Time

// TriggerEventType enumerates the popup lifecycle events the embed
// script reports.
type TriggerEventType string

const (
	EventPopupDisplayed  TriggerEventType = "popup_displayed"
	EventPopupClosed     TriggerEventType = "popup_closed"
	EventPopupCTAClicked TriggerEventType = "popup_cta_clicked"
	EventProductClicked  TriggerEventType = "product_clicked"
)

// ValidTriggerEventType reports whether s names a known event type.
func ValidTriggerEventType(s string) bool {
	switch TriggerEventType(s) {
	case EventPopupDisplayed, EventPopupClosed, EventPopupCTAClicked, EventProductClicked:
		return true
	}
	return false
}

// TriggerEvent is one telemetry record. Publishing is fire-and-forget:
// a failed or slow publish must never stall the trigger path.
type TriggerEvent struct {
	EventID     int64            `json:"event_id"`
	EventType   TriggerEventType `json:"event_type"`
	PopupID     int64            `json:"popup_id"`
	SessionID   string           `json:"session_id"`
	VisitorID   string           `json:"visitor_id,omitempty"`
	ProductID   int64            `json:"product_id,omitempty"`
	CloseReason string           `json:"close_reason,omitempty"`
	URL         string           `json:"url,omitempty"`
	IntentScore float64          `json:"intent_score,omitempty"`
	Timestamp   Time             `json:"timestamp"`
}

// EventProducer publishes trigger telemetry to the analytics pipeline.
type EventProducer interface {
	PublishTriggerEvent(ctx context.Context, event *TriggerEvent) error
}

// PageStatsDelta is one event's contribution to the per-page aggregates.
type PageStatsDelta struct {
	URL           string
	PopupID       int64
	Displays      int
	Closes        int
	CTAClicks     int
	ProductClicks int
	IntentScore   float64
	HasIntent     bool
	ObservedAt    Time
}

// AnalyticsRepository maintains the aggregated popup/page statistics the
// dashboard reads. Counters are summed; intent scores are kept as a
// running total plus sample count so the average is derived on read.
type AnalyticsRepository interface {
	ApplyDelta(ctx context.Context, delta *PageStatsDelta) error
}
