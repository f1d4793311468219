package recommend

import (
	"math"
	"testing"

	"engage_server/core/domain"
)

func scored(id int64, score float64) domain.ScoredProduct {
	return domain.ScoredProduct{
		Product:        product(id, "item", "technology", 5),
		RelevanceScore: score,
	}
}

func TestCombineWeightsSources(t *testing.T) {
	c := NewCombiner()

	content := domain.RecommendationSet{scored(1, 10)}
	history := domain.RecommendationSet{scored(2, 10)}
	session := domain.RecommendationSet{scored(3, 10)}

	got := c.Combine(content, history, session, 5)

	if len(got) != 3 {
		t.Fatalf("Combine returned %d products, want 3", len(got))
	}
	wantOrder := []int64{1, 2, 3}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d = product %d, want %d", i, got[i].ID, want)
		}
	}
	if math.Abs(got[0].RelevanceScore-0.5) > 1e-9 {
		t.Errorf("content score = %v, want 0.5", got[0].RelevanceScore)
	}
	if math.Abs(got[1].RelevanceScore-0.3) > 1e-9 {
		t.Errorf("history score = %v, want 0.3", got[1].RelevanceScore)
	}
	if math.Abs(got[2].RelevanceScore-0.2) > 1e-9 {
		t.Errorf("session score = %v, want 0.2", got[2].RelevanceScore)
	}
}

func TestCombineAllSourcesScoresExactlyOne(t *testing.T) {
	c := NewCombiner()

	// Per-source relevance varies; the combined score only counts presence.
	content := domain.RecommendationSet{scored(1, 9)}
	history := domain.RecommendationSet{scored(1, 10)}
	session := domain.RecommendationSet{scored(1, 10)}

	got := c.Combine(content, history, session, 5)

	if len(got) != 1 {
		t.Fatalf("Combine returned %d products, want 1", len(got))
	}
	if got[0].RelevanceScore != 1.0 {
		t.Errorf("combined score = %v, want exactly 1.0", got[0].RelevanceScore)
	}
}

func TestCombineAccumulatesCrossSourceProducts(t *testing.T) {
	c := NewCombiner()

	// Product 1 appears in every source; product 2 only in content, where
	// its relevance is higher. Presence across sources still wins.
	content := domain.RecommendationSet{scored(1, 6), scored(2, 10)}
	history := domain.RecommendationSet{scored(1, 6)}
	session := domain.RecommendationSet{scored(1, 6)}

	got := c.Combine(content, history, session, 5)

	if len(got) != 2 {
		t.Fatalf("Combine returned %d products, want 2", len(got))
	}
	// 0.5+0.3+0.2 = 1.0 beats content-only 0.5.
	if got[0].ID != 1 {
		t.Errorf("cross-source product should rank first, got product %d", got[0].ID)
	}
}

func TestCombineTiesKeepFirstSeenOrder(t *testing.T) {
	c := NewCombiner()

	content := domain.RecommendationSet{scored(7, 4), scored(8, 4)}

	got := c.Combine(content, nil, nil, 5)

	if len(got) != 2 {
		t.Fatalf("Combine returned %d products, want 2", len(got))
	}
	if got[0].ID != 7 || got[1].ID != 8 {
		t.Errorf("tie order = [%d, %d], want [7, 8]", got[0].ID, got[1].ID)
	}
}

func TestCombineAppliesLimit(t *testing.T) {
	c := NewCombiner()

	content := domain.RecommendationSet{
		scored(1, 10), scored(2, 9), scored(3, 8), scored(4, 7), scored(5, 6),
	}

	got := c.Combine(content, nil, nil, 3)
	if len(got) != 3 {
		t.Fatalf("Combine returned %d products, want 3", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("top product = %d, want 1", got[0].ID)
	}
}

func TestCombineEmptySources(t *testing.T) {
	c := NewCombiner()

	got := c.Combine(nil, nil, nil, 5)
	if len(got) != 0 {
		t.Errorf("Combine of empty sources returned %d products, want 0", len(got))
	}
}
