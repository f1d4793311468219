package out

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryStore is the outbound port to long-lived visitor behavior:
// which products a visitor has engaged with across sessions. It backs
// the user-history recommendation source.
type HistoryStore interface {
	// RecordProductClick upserts a visitor→product interaction edge.
	RecordProductClick(ctx context.Context, visitorID uuid.UUID, productID int64, at time.Time) error

	// TopProductsForVisitor returns product ids ordered by engagement,
	// strongest first.
	TopProductsForVisitor(ctx context.Context, visitorID uuid.UUID, limit int) ([]int64, error)
}

// SessionStore tracks the short-lived trail of products a visitor has
// seen within the current session. It backs the session recommendation
// source and expires with the session.
type SessionStore interface {
	// AppendViewed records that the session saw a product.
	AppendViewed(ctx context.Context, sessionID uuid.UUID, productID int64) error

	// RecentViewed returns the most recently seen product ids, newest
	// first, deduplicated.
	RecentViewed(ctx context.Context, sessionID uuid.UUID, limit int) ([]int64, error)
}
