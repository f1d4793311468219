package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFrequencyAdapterZeroState(t *testing.T) {
	adapter := NewFrequencyAdapter(testRedis(t))

	state, err := adapter.Get(context.Background(), uuid.New(), 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.DisplayCount != 0 {
		t.Errorf("DisplayCount = %d, want 0", state.DisplayCount)
	}
	if !state.LastShownAt.IsZero() {
		t.Errorf("LastShownAt = %v, want zero", state.LastShownAt)
	}
}

func TestFrequencyAdapterRecordAndGet(t *testing.T) {
	adapter := NewFrequencyAdapter(testRedis(t))
	visitorID := uuid.New()
	shownAt := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	if err := adapter.RecordDisplay(context.Background(), visitorID, 42, shownAt); err != nil {
		t.Fatalf("RecordDisplay: %v", err)
	}

	state, err := adapter.Get(context.Background(), visitorID, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.DisplayCount != 1 {
		t.Errorf("DisplayCount = %d, want 1", state.DisplayCount)
	}
	if !state.LastShownAt.Equal(shownAt) {
		t.Errorf("LastShownAt = %v, want %v", state.LastShownAt, shownAt)
	}
}

func TestFrequencyAdapterCountAccumulates(t *testing.T) {
	adapter := NewFrequencyAdapter(testRedis(t))
	visitorID := uuid.New()

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		shownAt := base.Add(time.Duration(i) * 25 * time.Hour)
		if err := adapter.RecordDisplay(context.Background(), visitorID, 7, shownAt); err != nil {
			t.Fatalf("RecordDisplay %d: %v", i, err)
		}
	}

	state, err := adapter.Get(context.Background(), visitorID, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.DisplayCount != 3 {
		t.Errorf("DisplayCount = %d, want 3", state.DisplayCount)
	}
	want := base.Add(50 * time.Hour)
	if !state.LastShownAt.Equal(want) {
		t.Errorf("LastShownAt = %v, want %v (latest display)", state.LastShownAt, want)
	}
}

func TestFrequencyAdapterIsolatesPopupsAndVisitors(t *testing.T) {
	adapter := NewFrequencyAdapter(testRedis(t))
	visitorA := uuid.New()
	visitorB := uuid.New()
	shownAt := time.Now().UTC().Truncate(time.Second)

	if err := adapter.RecordDisplay(context.Background(), visitorA, 1, shownAt); err != nil {
		t.Fatalf("RecordDisplay: %v", err)
	}

	otherPopup, err := adapter.Get(context.Background(), visitorA, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if otherPopup.DisplayCount != 0 {
		t.Errorf("other popup DisplayCount = %d, want 0", otherPopup.DisplayCount)
	}

	otherVisitor, err := adapter.Get(context.Background(), visitorB, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if otherVisitor.DisplayCount != 0 {
		t.Errorf("other visitor DisplayCount = %d, want 0", otherVisitor.DisplayCount)
	}
}
