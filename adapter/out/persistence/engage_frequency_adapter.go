package persistence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"engage_server/core/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// frequencyTTL bounds how long display bookkeeping survives. Anything
// older than the longest cooldown plus slack is dead weight.
const frequencyTTL = 30 * 24 * time.Hour

// FrequencyAdapter implements out.FrequencyStore on Redis. Each
// (visitor, popup) pair keeps two keys: a display counter and the
// last-shown timestamp stored as RFC3339 text.
type FrequencyAdapter struct {
	client *redis.Client
}

// NewFrequencyAdapter creates a new FrequencyAdapter.
func NewFrequencyAdapter(client *redis.Client) *FrequencyAdapter {
	return &FrequencyAdapter{client: client}
}

func frequencyCountKey(visitorID uuid.UUID, popupID int64) string {
	return fmt.Sprintf("visitor:%s:popup_%d_count", visitorID, popupID)
}

func frequencyShownKey(visitorID uuid.UUID, popupID int64) string {
	return fmt.Sprintf("visitor:%s:popup_%d_last_shown", visitorID, popupID)
}

// Get returns the display state for a popup/visitor pair. Missing keys
// yield a zero state.
func (a *FrequencyAdapter) Get(ctx context.Context, visitorID uuid.UUID, popupID int64) (*domain.DisplayState, error) {
	values, err := a.client.MGet(ctx, frequencyCountKey(visitorID, popupID), frequencyShownKey(visitorID, popupID)).Result()
	if err != nil {
		return nil, fmt.Errorf("frequency get: %w", err)
	}

	state := &domain.DisplayState{}

	if raw, ok := values[0].(string); ok {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("frequency count for popup %d is corrupt: %w", popupID, err)
		}
		state.DisplayCount = count
	}
	if raw, ok := values[1].(string); ok {
		shownAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("frequency timestamp for popup %d is corrupt: %w", popupID, err)
		}
		state.LastShownAt = shownAt
	}

	return state, nil
}

// RecordDisplay increments the counter and overwrites the timestamp in
// one round trip.
func (a *FrequencyAdapter) RecordDisplay(ctx context.Context, visitorID uuid.UUID, popupID int64, shownAt time.Time) error {
	countKey := frequencyCountKey(visitorID, popupID)
	shownKey := frequencyShownKey(visitorID, popupID)

	pipe := a.client.TxPipeline()
	pipe.Incr(ctx, countKey)
	pipe.Expire(ctx, countKey, frequencyTTL)
	pipe.Set(ctx, shownKey, shownAt.UTC().Format(time.RFC3339), frequencyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("frequency record: %w", err)
	}
	return nil
}
