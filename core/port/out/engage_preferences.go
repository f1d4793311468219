package out

import (
	"context"

	"github.com/google/uuid"

	"engage_server/core/domain"
)

// PreferenceRepository stores per-visitor popup preferences.
type PreferenceRepository interface {
	// Get returns the stored preferences, or nil if the visitor has none.
	Get(ctx context.Context, visitorID uuid.UUID) (*domain.VisitorPreferences, error)

	Upsert(ctx context.Context, prefs *domain.VisitorPreferences) error

	// IncrementDismissCount bumps the dismissal counter; repeated
	// dismissals are how a visitor earns the non-aggressive treatment.
	IncrementDismissCount(ctx context.Context, visitorID uuid.UUID) error
}
