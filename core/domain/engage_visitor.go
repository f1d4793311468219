package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Visitor - the anonymous person the embed script tracks
// =============================================================================

// VisitorPreferences holds the per-visitor knobs the popup policy reads.
// NonAggressive is the explicit "show me less" preference; when set, the
// policy relaxes trigger thresholds and tightens display frequency.
type VisitorPreferences struct {
	VisitorID     uuid.UUID `json:"visitor_id"`
	NonAggressive bool      `json:"non_aggressive"`
	DismissCount  int       `json:"dismiss_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultPreferences returns the preferences assumed for a visitor with
// no stored record.
func DefaultPreferences(visitorID uuid.UUID) *VisitorPreferences {
	return &VisitorPreferences{VisitorID: visitorID}
}

// Session identifies one page-load-to-navigation span of visitor activity.
type Session struct {
	ID        uuid.UUID `json:"id"`
	VisitorID uuid.UUID `json:"visitor_id"`
	PageURL   string    `json:"page_url,omitempty"`
	StartedAt time.Time `json:"started_at"`
}
