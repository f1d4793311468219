package persistence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// maxSessionTrail caps the stored view trail per session.
const maxSessionTrail = 50

// SessionAdapter implements out.SessionStore on Redis. The view trail is
// a list keyed by session id, newest first, expiring with the session.
type SessionAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionAdapter creates a new SessionAdapter. ttl is the session
// lifetime; each write refreshes it.
func NewSessionAdapter(client *redis.Client, ttl time.Duration) *SessionAdapter {
	return &SessionAdapter{client: client, ttl: ttl}
}

func sessionTrailKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:viewed", sessionID)
}

// AppendViewed records that the session saw a product and trims the
// trail to its cap.
func (a *SessionAdapter) AppendViewed(ctx context.Context, sessionID uuid.UUID, productID int64) error {
	key := sessionTrailKey(sessionID)

	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, key, strconv.FormatInt(productID, 10))
	pipe.LTrim(ctx, key, 0, maxSessionTrail-1)
	pipe.Expire(ctx, key, a.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session append: %w", err)
	}
	return nil
}

// RecentViewed returns the most recently seen product ids, newest first,
// deduplicated.
func (a *SessionAdapter) RecentViewed(ctx context.Context, sessionID uuid.UUID, limit int) ([]int64, error) {
	raw, err := a.client.LRange(ctx, sessionTrailKey(sessionID), 0, maxSessionTrail-1).Result()
	if err != nil {
		return nil, fmt.Errorf("session trail read: %w", err)
	}

	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, limit)
	for _, item := range raw {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}
