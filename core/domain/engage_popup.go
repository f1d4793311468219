package domain

import "time"

// =============================================================================
// PopupConfig - immutable decision to offer a popup to a visitor
// =============================================================================

// PopupArchetype selects the visual form of the popup.
type PopupArchetype string

const (
	ArchetypeOverlayCenter PopupArchetype = "overlay-center"
	ArchetypeSlideInBottom PopupArchetype = "slide-in-bottom"
	ArchetypeTopBanner     PopupArchetype = "top-banner"
)

// DisplayFrequency bounds how often the same popup may be shown to the
// same visitor.
type DisplayFrequency string

const (
	FrequencyOncePerSession DisplayFrequency = "once-per-session"
	FrequencyOncePerDay     DisplayFrequency = "once-per-day"
)

// TriggerRule is the set of conditions that gate a popup's display.
// Present conditions combine with AND semantics; exit intent is an
// independent OR path that bypasses the others. A nil field means the
// condition is absent and considered satisfied.
type TriggerRule struct {
	ScrollPercentage *float64 `json:"scroll_percentage,omitempty"`
	TimeDelayMs      *int     `json:"time_delay_ms,omitempty"`
	ExitIntent       bool     `json:"exit_intent"`
}

// DesignSettings carries the visual parameters the embed script renders.
type DesignSettings struct {
	Archetype       PopupArchetype `json:"archetype"`
	AccentColor     string         `json:"accent_color,omitempty"`
	ShowCloseButton bool           `json:"show_close_button"`
}

// PopupContent is the copy and product payload of a popup.
type PopupContent struct {
	Headline    string            `json:"headline"`
	Description string            `json:"description"`
	CTAText     string            `json:"cta_text"`
	Products    RecommendationSet `json:"products"`
}

// TargetingRule bounds how often and for how long a popup may be shown.
type TargetingRule struct {
	MaxDisplaysPerUser int              `json:"max_displays_per_user"`
	CooldownPeriod     time.Duration    `json:"cooldown_period"`
	Frequency          DisplayFrequency `json:"frequency"`
}

// DefaultTargeting returns the stock frequency limits: at most three
// displays per visitor with a 24 hour cooldown between them.
func DefaultTargeting() TargetingRule {
	return TargetingRule{
		MaxDisplaysPerUser: 3,
		CooldownPeriod:     24 * time.Hour,
		Frequency:          FrequencyOncePerSession,
	}
}

// PopupConfig is a fully formed popup decision. Created once, immutable
// thereafter; the same config may be displayed across multiple sessions
// subject to its targeting rule.
type PopupConfig struct {
	ID        int64          `json:"id"`
	Trigger   TriggerRule    `json:"trigger"`
	Design    DesignSettings `json:"design"`
	Content   PopupContent   `json:"content"`
	Targeting TargetingRule  `json:"targeting"`
	CreatedAt time.Time      `json:"created_at"`
}

// =============================================================================
// DisplayState - per (popup, visitor) frequency bookkeeping
// =============================================================================

// DisplayState records how often a popup has been shown to a visitor.
// DisplayCount only ever grows; it is read once before arming a trigger
// and written once per display.
type DisplayState struct {
	DisplayCount int       `json:"display_count"`
	LastShownAt  time.Time `json:"last_shown_at"`
}

// CloseReason describes how a visitor dismissed a popup. All reasons
// produce the same terminal transition.
type CloseReason string

const (
	CloseReasonButton  CloseReason = "button"
	CloseReasonOverlay CloseReason = "overlay"
	CloseReasonCTA     CloseReason = "cta"
)
