package persistence

import (
	"context"
	"database/sql"
	"time"

	"engage_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PreferenceAdapter implements out.PreferenceRepository using PostgreSQL.
type PreferenceAdapter struct {
	db *sqlx.DB
}

// NewPreferenceAdapter creates a new PreferenceAdapter.
func NewPreferenceAdapter(db *sqlx.DB) *PreferenceAdapter {
	return &PreferenceAdapter{db: db}
}

// preferenceRow represents the database row for visitor preferences.
type preferenceRow struct {
	VisitorID     uuid.UUID `db:"visitor_id"`
	NonAggressive bool      `db:"non_aggressive"`
	DismissCount  int       `db:"dismiss_count"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *preferenceRow) toEntity() *domain.VisitorPreferences {
	return &domain.VisitorPreferences{
		VisitorID:     r.VisitorID,
		NonAggressive: r.NonAggressive,
		DismissCount:  r.DismissCount,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Get retrieves a visitor's preferences, or nil if none are stored.
func (a *PreferenceAdapter) Get(ctx context.Context, visitorID uuid.UUID) (*domain.VisitorPreferences, error) {
	const query = `
		SELECT visitor_id, non_aggressive, dismiss_count, updated_at
		FROM visitor_preferences
		WHERE visitor_id = $1
	`

	var row preferenceRow
	if err := a.db.GetContext(ctx, &row, query, visitorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// Upsert creates or updates a visitor's preferences.
func (a *PreferenceAdapter) Upsert(ctx context.Context, prefs *domain.VisitorPreferences) error {
	const query = `
		INSERT INTO visitor_preferences (visitor_id, non_aggressive, dismiss_count, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (visitor_id) DO UPDATE SET
			non_aggressive = EXCLUDED.non_aggressive,
			dismiss_count = EXCLUDED.dismiss_count,
			updated_at = NOW()
	`

	_, err := a.db.ExecContext(ctx, query, prefs.VisitorID, prefs.NonAggressive, prefs.DismissCount)
	return err
}

// IncrementDismissCount bumps the dismissal counter, creating the row on
// first dismiss. Three or more dismissals flip the visitor into the
// non-aggressive treatment.
func (a *PreferenceAdapter) IncrementDismissCount(ctx context.Context, visitorID uuid.UUID) error {
	const query = `
		INSERT INTO visitor_preferences (visitor_id, non_aggressive, dismiss_count, updated_at)
		VALUES ($1, false, 1, NOW())
		ON CONFLICT (visitor_id) DO UPDATE SET
			dismiss_count = visitor_preferences.dismiss_count + 1,
			non_aggressive = visitor_preferences.non_aggressive OR visitor_preferences.dismiss_count + 1 >= 3,
			updated_at = NOW()
	`

	_, err := a.db.ExecContext(ctx, query, visitorID)
	return err
}
