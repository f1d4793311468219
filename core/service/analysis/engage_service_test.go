package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"engage_server/core/domain"
)

// memCache is a minimal in-memory Cache for analyzer tests.
type memCache struct {
	data map[string]string
	sets int
	gets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.gets++
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), dest)
}

func (m *memCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = string(raw)
	return nil
}

func (m *memCache) Increment(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (m *memCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func TestAnalyzeCommercialPage(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	got := analyzer.Analyze(context.Background(), "https://example.com/headphones", "Best budget wireless headphones review: compare top deals", "")
	// Empty body degrades; the pipeline needs page text.
	if got.IntentScore != 0 {
		t.Fatalf("empty content should degrade to zero intent, got %v", got.IntentScore)
	}

	got = analyzer.Analyze(context.Background(), "https://example.com/headphones", "", "Best budget wireless headphones review: compare top deals")
	if !got.ShouldShowPopup() {
		t.Errorf("commercial headline should cross the popup threshold, intent score %v", got.IntentScore)
	}
	if got.Category != "technology" {
		t.Errorf("Category = %q, want technology", got.Category)
	}
	if got.Hash == "" {
		t.Error("Hash should be set")
	}
	if len(got.Keywords) == 0 {
		t.Error("Keywords should not be empty")
	}
	if got.Sentiment != domain.SentimentNeutral {
		t.Errorf("Sentiment = %q, want neutral", got.Sentiment)
	}
}

func TestAnalyzeTitleContributesSignal(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	body := "A rundown of this year's releases."
	plain := analyzer.Analyze(context.Background(), "", "", body)
	titled := analyzer.Analyze(context.Background(), "", "Best deals and discount offers", body)

	if titled.IntentScore <= plain.IntentScore {
		t.Errorf("title terms should raise the intent score: titled=%v plain=%v", titled.IntentScore, plain.IntentScore)
	}
}

func TestAnalyzeEmptyContentDegrades(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	got := analyzer.Analyze(context.Background(), "https://example.com", "Some title", "")
	if got.IntentScore != 0 {
		t.Errorf("IntentScore = %v, want 0", got.IntentScore)
	}
	if got.Category != domain.CategoryGeneral {
		t.Errorf("Category = %q, want %q", got.Category, domain.CategoryGeneral)
	}
	if got.ShouldShowPopup() {
		t.Error("degraded analysis must suppress the popup")
	}
}

func TestAnalyzeMemoizesByContentHash(t *testing.T) {
	cache := newMemCache()
	analyzer := NewAnalyzer(cache, nil)

	content := "Best budget wireless headphones review: compare top deals"

	first := analyzer.Analyze(context.Background(), "https://a.example", "", content)
	if cache.sets != 1 {
		t.Fatalf("first analysis should write the cache once, wrote %d times", cache.sets)
	}

	second := analyzer.Analyze(context.Background(), "https://a.example", "", content)
	if cache.sets != 1 {
		t.Errorf("second analysis should be served from cache, writes = %d", cache.sets)
	}
	if second.Hash != first.Hash {
		t.Errorf("identical content should hash identically: %s vs %s", second.Hash, first.Hash)
	}
	if second.IntentScore != first.IntentScore {
		t.Errorf("cached result drifted: %v vs %v", second.IntentScore, first.IntentScore)
	}
}
