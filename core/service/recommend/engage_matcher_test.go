package recommend

import (
	"testing"

	"engage_server/core/domain"
)

func product(id int64, name, category string, commission float64) domain.Product {
	return domain.Product{
		ID:             id,
		Name:           name,
		Category:       category,
		Price:          49.99,
		Currency:       "USD",
		CommissionRate: commission,
		AffiliateURL:   "https://aff.example/p",
	}
}

func TestMatchExcludesUnpromotable(t *testing.T) {
	m := NewMatcher()

	missingPrice := product(1, "wireless headphones", "technology", 8)
	missingPrice.Price = 0
	missingCommission := product(2, "wireless headphones", "technology", 0)
	missingURL := product(3, "wireless headphones", "technology", 8)
	missingURL.AffiliateURL = ""
	complete := product(4, "wireless headphones", "technology", 8)

	got := m.Match(
		[]domain.Product{missingPrice, missingCommission, missingURL, complete},
		[]string{"headphones"}, "technology", 0.9,
	)

	if len(got) != 1 {
		t.Fatalf("Match returned %d products, want 1", len(got))
	}
	if got[0].ID != 4 {
		t.Errorf("Match kept product %d, want 4", got[0].ID)
	}
}

func TestMatchRanksByRelevance(t *testing.T) {
	m := NewMatcher()

	candidates := []domain.Product{
		product(1, "garden hose", "home", 5),
		product(2, "wireless headphones with noise cancelling", "technology", 5),
		product(3, "headphone stand", "technology", 5),
	}

	got := m.Match(candidates, []string{"wireless", "headphones", "noise"}, "technology", 0.9)

	if len(got) != 3 {
		t.Fatalf("Match returned %d products, want 3", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("top product = %d, want 2 (most keyword hits)", got[0].ID)
	}
	if got[2].ID != 1 {
		t.Errorf("bottom product = %d, want 1 (no keyword or category match)", got[2].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].RelevanceScore > got[i-1].RelevanceScore {
			t.Errorf("scores not descending at %d: %v > %v", i, got[i].RelevanceScore, got[i-1].RelevanceScore)
		}
	}
}

func TestMatchCommissionBreaksTies(t *testing.T) {
	m := NewMatcher()

	low := product(1, "usb cable", "technology", 2)
	high := product(2, "usb cable", "technology", 12)

	got := m.Match([]domain.Product{low, high}, []string{"cable"}, "technology", 0.9)

	if len(got) != 2 {
		t.Fatalf("Match returned %d products, want 2", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("equal relevance should rank the higher commission first, got product %d", got[0].ID)
	}
}

func TestMatchLimitFollowsIntent(t *testing.T) {
	m := NewMatcher()

	candidates := make([]domain.Product, 0, 8)
	for i := int64(1); i <= 8; i++ {
		candidates = append(candidates, product(i, "gadget", "technology", 5))
	}

	tests := []struct {
		name        string
		intentScore float64
		wantLen     int
	}{
		{"high intent widens the set", 0.85, domain.MaxRecommendations},
		{"moderate intent stays narrow", 0.65, domain.DefaultRecommendations},
		{"threshold is strict", 0.8, domain.DefaultRecommendations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(candidates, []string{"gadget"}, "technology", tt.intentScore)
			if len(got) != tt.wantLen {
				t.Errorf("Match returned %d products, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestMatchPartialCategoryBonus(t *testing.T) {
	m := NewMatcher()

	exact := m.relevance(&domain.Product{Name: "x", Category: "technology"}, nil, "technology")
	partial := m.relevance(&domain.Product{Name: "x", Category: "tech"}, nil, "technology")
	none := m.relevance(&domain.Product{Name: "x", Category: "garden"}, nil, "technology")

	if exact <= partial {
		t.Errorf("exact category match should score above partial: exact=%v partial=%v", exact, partial)
	}
	if partial <= none {
		t.Errorf("partial category match should score above none: partial=%v none=%v", partial, none)
	}
}
