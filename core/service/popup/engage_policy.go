// Package popup decides whether, how and when a popup is offered to a
// visitor, and drives the trigger state machine once one is offered.
package popup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"
	"engage_server/pkg/snowflake"
)

// =============================================================================
// Policy Engine - analysis + recommendations -> PopupConfig
// =============================================================================

// Intent bands for archetype selection.
const (
	overlayThreshold = 0.8
	slideInThreshold = 0.5
)

// Base trigger conditions, tightened for hot pages and relaxed for
// visitors who keep dismissing popups.
const (
	baseScrollPct    = 50.0
	baseDelayMs      = 5000
	tightScrollPct   = 30.0
	tightDelayMs     = 3000
	relaxedScrollPct = 70.0
	relaxedDelayMs   = 10000

	tightenThreshold = 0.7
)

// PolicyConfig carries the targeting defaults applied to every popup.
type PolicyConfig struct {
	MaxDisplaysPerUser int
	CooldownPeriod     time.Duration
}

// DefaultPolicyConfig mirrors the stock targeting rule.
func DefaultPolicyConfig() *PolicyConfig {
	t := domain.DefaultTargeting()
	return &PolicyConfig{
		MaxDisplaysPerUser: t.MaxDisplaysPerUser,
		CooldownPeriod:     t.CooldownPeriod,
	}
}

// PolicyEngine turns an analysis result and a recommendation set into an
// immutable PopupConfig. It never decides to show a popup on a page whose
// intent score is below the display threshold; callers check
// ShouldShowPopup first and the engine re-checks to stay safe.
type PolicyEngine struct {
	gen   *snowflake.Generator
	prefs out.PreferenceRepository
	cfg   *PolicyConfig
	log   *logger.Logger
	now   func() time.Time
}

// NewPolicyEngine creates a policy engine. prefs may be nil, in which
// case every visitor gets the standard treatment.
func NewPolicyEngine(gen *snowflake.Generator, prefs out.PreferenceRepository, cfg *PolicyConfig) *PolicyEngine {
	if cfg == nil {
		cfg = DefaultPolicyConfig()
	}
	return &PolicyEngine{
		gen:   gen,
		prefs: prefs,
		cfg:   cfg,
		log:   logger.Default().WithField("component", "popup_policy"),
		now:   time.Now,
	}
}

// Decide builds the popup configuration for one page view, or returns
// nil when the page does not justify a popup (low intent or nothing to
// recommend). A nil return is a normal outcome, not an error.
func (e *PolicyEngine) Decide(ctx context.Context, analysis *domain.ContentAnalysis, recs domain.RecommendationSet, visitorID uuid.UUID) (*domain.PopupConfig, error) {
	if !analysis.ShouldShowPopup() {
		return nil, nil
	}
	if len(recs) == 0 {
		return nil, nil
	}

	nonAggressive := e.visitorIsNonAggressive(ctx, visitorID)

	id, err := e.gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate popup id: %w", err)
	}

	cfg := &domain.PopupConfig{
		ID:        id,
		Trigger:   e.trigger(analysis.IntentScore, nonAggressive),
		Design:    e.design(analysis.IntentScore),
		Content:   e.content(analysis, recs),
		Targeting: e.targeting(nonAggressive),
		CreatedAt: e.now().UTC(),
	}
	return cfg, nil
}

// visitorIsNonAggressive reads the stored preference; lookup failures
// default to the standard treatment.
func (e *PolicyEngine) visitorIsNonAggressive(ctx context.Context, visitorID uuid.UUID) bool {
	if e.prefs == nil || visitorID == uuid.Nil {
		return false
	}
	prefs, err := e.prefs.Get(ctx, visitorID)
	if err != nil {
		e.log.WithContext(ctx).WithError(err).Warn("preference lookup failed, using standard treatment")
		return false
	}
	return prefs != nil && prefs.NonAggressive
}

// trigger picks the display conditions. Hot pages trigger earlier;
// visitors who keep dismissing get later, larger thresholds. Exit intent
// stays on either way since it fires on leave, not on engagement.
func (e *PolicyEngine) trigger(intentScore float64, nonAggressive bool) domain.TriggerRule {
	scroll := baseScrollPct
	delay := baseDelayMs

	if intentScore > tightenThreshold {
		scroll = tightScrollPct
		delay = tightDelayMs
	}
	if nonAggressive {
		scroll = relaxedScrollPct
		delay = relaxedDelayMs
	}

	return domain.TriggerRule{
		ScrollPercentage: &scroll,
		TimeDelayMs:      &delay,
		ExitIntent:       true,
	}
}

// design maps the intent band to a popup archetype. Stronger intent
// justifies a more prominent form.
func (e *PolicyEngine) design(intentScore float64) domain.DesignSettings {
	var archetype domain.PopupArchetype
	switch {
	case intentScore > overlayThreshold:
		archetype = domain.ArchetypeOverlayCenter
	case intentScore > slideInThreshold:
		archetype = domain.ArchetypeSlideInBottom
	default:
		archetype = domain.ArchetypeTopBanner
	}
	return domain.DesignSettings{
		Archetype:       archetype,
		ShowCloseButton: true,
	}
}

// content assembles the copy. The headline tracks the intent band so
// high-intent pages get the harder sell.
func (e *PolicyEngine) content(analysis *domain.ContentAnalysis, recs domain.RecommendationSet) domain.PopupContent {
	var headline, description string
	switch {
	case analysis.IntentScore > overlayThreshold:
		headline = "Hand-picked deals for you"
		description = fmt.Sprintf("Top %s picks matched to what you're reading.", analysis.Category)
	case analysis.IntentScore > tightenThreshold:
		headline = "Recommended for this article"
		description = fmt.Sprintf("Readers of this page also looked at these %s products.", analysis.Category)
	default:
		headline = "You might also like"
		description = "Related products picked for this page."
	}

	return domain.PopupContent{
		Headline:    headline,
		Description: description,
		CTAText:     "See the deals",
		Products:    recs,
	}
}

// targeting applies the configured frequency limits. Non-aggressive
// visitors drop to at most one display per day.
func (e *PolicyEngine) targeting(nonAggressive bool) domain.TargetingRule {
	rule := domain.TargetingRule{
		MaxDisplaysPerUser: e.cfg.MaxDisplaysPerUser,
		CooldownPeriod:     e.cfg.CooldownPeriod,
		Frequency:          domain.FrequencyOncePerSession,
	}
	if nonAggressive {
		rule.Frequency = domain.FrequencyOncePerDay
	}
	return rule
}
