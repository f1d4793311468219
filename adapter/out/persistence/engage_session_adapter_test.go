package persistence

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionAdapterEmptyTrail(t *testing.T) {
	adapter := NewSessionAdapter(testRedis(t), 4*time.Hour)

	ids, err := adapter.RecentViewed(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("RecentViewed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("RecentViewed = %v, want empty", ids)
	}
}

func TestSessionAdapterNewestFirstDeduplicated(t *testing.T) {
	adapter := NewSessionAdapter(testRedis(t), 4*time.Hour)
	sessionID := uuid.New()

	for _, id := range []int64{10, 20, 10, 30} {
		if err := adapter.AppendViewed(context.Background(), sessionID, id); err != nil {
			t.Fatalf("AppendViewed(%d): %v", id, err)
		}
	}

	ids, err := adapter.RecentViewed(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatalf("RecentViewed: %v", err)
	}
	want := []int64{30, 10, 20}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("RecentViewed = %v, want %v", ids, want)
	}
}

func TestSessionAdapterHonorsLimit(t *testing.T) {
	adapter := NewSessionAdapter(testRedis(t), 4*time.Hour)
	sessionID := uuid.New()

	for id := int64(1); id <= 8; id++ {
		if err := adapter.AppendViewed(context.Background(), sessionID, id); err != nil {
			t.Fatalf("AppendViewed(%d): %v", id, err)
		}
	}

	ids, err := adapter.RecentViewed(context.Background(), sessionID, 3)
	if err != nil {
		t.Fatalf("RecentViewed: %v", err)
	}
	want := []int64{8, 7, 6}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("RecentViewed = %v, want %v", ids, want)
	}
}

func TestSessionAdapterIsolatesSessions(t *testing.T) {
	adapter := NewSessionAdapter(testRedis(t), 4*time.Hour)
	sessionA := uuid.New()
	sessionB := uuid.New()

	if err := adapter.AppendViewed(context.Background(), sessionA, 99); err != nil {
		t.Fatalf("AppendViewed: %v", err)
	}

	ids, err := adapter.RecentViewed(context.Background(), sessionB, 10)
	if err != nil {
		t.Fatalf("RecentViewed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("session B trail = %v, want empty", ids)
	}
}
