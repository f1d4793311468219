package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"engage_server/core/domain"
)

type fakeCatalog struct {
	active     []domain.Product
	byCategory map[string][]domain.Product
	err        error
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]domain.Product, error) {
	return f.active, f.err
}

func (f *fakeCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return f.byCategory[category], f.err
}

func (f *fakeCatalog) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Product
	for _, p := range f.active {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fakeHistory struct {
	top []int64
	err error
}

func (f *fakeHistory) RecordProductClick(ctx context.Context, visitorID uuid.UUID, productID int64, at time.Time) error {
	return nil
}

func (f *fakeHistory) TopProductsForVisitor(ctx context.Context, visitorID uuid.UUID, limit int) ([]int64, error) {
	return f.top, f.err
}

type fakeSessions struct {
	recent []int64
	err    error
}

func (f *fakeSessions) AppendViewed(ctx context.Context, sessionID uuid.UUID, productID int64) error {
	return nil
}

func (f *fakeSessions) RecentViewed(ctx context.Context, sessionID uuid.UUID, limit int) ([]int64, error) {
	return f.recent, f.err
}

func analysisFixture(intent float64) *domain.ContentAnalysis {
	return &domain.ContentAnalysis{
		Hash:        domain.ContentHash("fixture"),
		Keywords:    []string{"wireless", "headphones"},
		IntentScore: intent,
		Category:    "technology",
		Sentiment:   domain.SentimentNeutral,
		AnalyzedAt:  time.Now().UTC(),
	}
}

func TestRecommendBlendsSources(t *testing.T) {
	catalog := &fakeCatalog{
		active: []domain.Product{
			product(1, "wireless headphones", "technology", 8),
			product(2, "phone case", "technology", 4),
			product(3, "desk lamp", "home", 3),
		},
		byCategory: map[string][]domain.Product{
			"technology": {
				product(1, "wireless headphones", "technology", 8),
				product(2, "phone case", "technology", 4),
			},
		},
	}
	history := &fakeHistory{top: []int64{3}}
	sessions := &fakeSessions{recent: []int64{2}}

	r := NewRecommender(catalog, history, sessions, nil)

	got := r.Recommend(context.Background(), analysisFixture(0.7), uuid.New(), uuid.New())

	if len(got) == 0 {
		t.Fatal("Recommend returned no products")
	}
	if len(got) > domain.DefaultRecommendations {
		t.Fatalf("Recommend returned %d products, want at most %d", len(got), domain.DefaultRecommendations)
	}
	// Product 2 sits in two sources (content and session, 0.7), product 1
	// only in content (0.5) and product 3 only in history (0.3).
	if got[0].ID != 2 {
		t.Errorf("top product = %d, want 2 (content + session)", got[0].ID)
	}

	seen := map[int64]bool{}
	for _, p := range got {
		if seen[p.ID] {
			t.Errorf("product %d appears twice", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestRecommendAnonymousSkipsPersonalSources(t *testing.T) {
	catalog := &fakeCatalog{
		active: []domain.Product{product(1, "wireless headphones", "technology", 8)},
		byCategory: map[string][]domain.Product{
			"technology": {product(1, "wireless headphones", "technology", 8)},
		},
	}
	history := &fakeHistory{err: errors.New("history store should not be reached")}
	sessions := &fakeSessions{err: errors.New("session store should not be reached")}

	r := NewRecommender(catalog, history, sessions, nil)

	got := r.Recommend(context.Background(), analysisFixture(0.7), uuid.Nil, uuid.Nil)

	if len(got) != 1 {
		t.Fatalf("Recommend returned %d products, want 1", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("top product = %d, want 1", got[0].ID)
	}
}

func TestRecommendSourceFailureDegrades(t *testing.T) {
	catalog := &fakeCatalog{
		active: []domain.Product{product(1, "wireless headphones", "technology", 8)},
		byCategory: map[string][]domain.Product{
			"technology": {product(1, "wireless headphones", "technology", 8)},
		},
	}
	history := &fakeHistory{err: errors.New("neo4j down")}
	sessions := &fakeSessions{err: errors.New("redis down")}

	r := NewRecommender(catalog, history, sessions, nil)

	got := r.Recommend(context.Background(), analysisFixture(0.7), uuid.New(), uuid.New())

	if len(got) != 1 {
		t.Fatalf("failing personal sources should still yield content results, got %d products", len(got))
	}
}

func TestRecommendCatalogFailureYieldsEmpty(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("postgres down")}

	r := NewRecommender(catalog, nil, nil, nil)

	got := r.Recommend(context.Background(), analysisFixture(0.9), uuid.Nil, uuid.Nil)
	if len(got) != 0 {
		t.Errorf("Recommend with a dead catalog returned %d products, want 0", len(got))
	}
}

func TestRecommendGeneralCategoryUsesFullCatalog(t *testing.T) {
	catalog := &fakeCatalog{
		active: []domain.Product{product(9, "universal gift card", "general", 3)},
	}

	r := NewRecommender(catalog, nil, nil, nil)

	analysis := analysisFixture(0.7)
	analysis.Category = domain.CategoryGeneral
	analysis.Keywords = []string{"gift"}

	got := r.Recommend(context.Background(), analysis, uuid.Nil, uuid.Nil)
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("general category should fall back to the active catalog, got %v", got.ProductIDs())
	}
}
