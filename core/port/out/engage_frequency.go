package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"engage_server/core/domain"
)

// FrequencyStore persists per (popup, visitor) display bookkeeping.
// The trigger coordinator reads it exactly once before arming and writes
// it exactly once per display; it is never consulted again within a
// session. Implementations may back it with any key-value store.
type FrequencyStore interface {
	// Get returns the display state for a popup/visitor pair. A pair that
	// was never shown returns a zero-valued state, not an error.
	Get(ctx context.Context, visitorID uuid.UUID, popupID int64) (*domain.DisplayState, error)

	// RecordDisplay increments the display count and overwrites the
	// last-shown timestamp. Counts never decrease.
	RecordDisplay(ctx context.Context, visitorID uuid.UUID, popupID int64, shownAt time.Time) error
}
