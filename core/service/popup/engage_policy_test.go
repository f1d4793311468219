package popup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/pkg/snowflake"
)

type fakePrefs struct {
	prefs map[uuid.UUID]*domain.VisitorPreferences
	err   error
}

func (f *fakePrefs) Get(ctx context.Context, visitorID uuid.UUID) (*domain.VisitorPreferences, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prefs[visitorID], nil
}

func (f *fakePrefs) Upsert(ctx context.Context, prefs *domain.VisitorPreferences) error {
	return nil
}

func (f *fakePrefs) IncrementDismissCount(ctx context.Context, visitorID uuid.UUID) error {
	return nil
}

func testGenerator(t *testing.T) *snowflake.Generator {
	t.Helper()
	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen
}

func testAnalysis(intent float64) *domain.ContentAnalysis {
	return &domain.ContentAnalysis{
		Hash:        domain.ContentHash("page"),
		Keywords:    []string{"wireless", "headphones"},
		IntentScore: intent,
		Category:    "technology",
		Sentiment:   domain.SentimentNeutral,
		AnalyzedAt:  time.Now().UTC(),
	}
}

func testRecs() domain.RecommendationSet {
	return domain.RecommendationSet{
		{
			Product: domain.Product{
				ID:             1,
				Name:           "wireless headphones",
				Category:       "technology",
				Price:          59.99,
				CommissionRate: 8,
				AffiliateURL:   "https://aff.example/1",
			},
			RelevanceScore: 12,
		},
	}
}

func TestDecideBelowThresholdReturnsNil(t *testing.T) {
	e := NewPolicyEngine(testGenerator(t), nil, nil)

	cfg, err := e.Decide(context.Background(), testAnalysis(0.4), testRecs(), uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if cfg != nil {
		t.Errorf("low intent page should not get a popup, got config %d", cfg.ID)
	}
}

func TestDecideWithoutRecommendationsReturnsNil(t *testing.T) {
	e := NewPolicyEngine(testGenerator(t), nil, nil)

	cfg, err := e.Decide(context.Background(), testAnalysis(0.9), nil, uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if cfg != nil {
		t.Error("a popup with nothing to recommend should not be offered")
	}
}

func TestDecideArchetypeBands(t *testing.T) {
	e := NewPolicyEngine(testGenerator(t), nil, nil)

	tests := []struct {
		name   string
		intent float64
		want   domain.PopupArchetype
	}{
		{"very high intent gets the center overlay", 0.9, domain.ArchetypeOverlayCenter},
		{"moderate intent slides in", 0.7, domain.ArchetypeSlideInBottom},
		{"band boundaries are strict", 0.8, domain.ArchetypeSlideInBottom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := e.Decide(context.Background(), testAnalysis(tt.intent), testRecs(), uuid.New())
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if cfg == nil {
				t.Fatal("Decide returned nil config")
			}
			if cfg.Design.Archetype != tt.want {
				t.Errorf("Archetype = %q, want %q", cfg.Design.Archetype, tt.want)
			}
		})
	}
}

func TestDecideTriggerTightensWithIntent(t *testing.T) {
	e := NewPolicyEngine(testGenerator(t), nil, nil)

	base, err := e.Decide(context.Background(), testAnalysis(0.65), testRecs(), uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	hot, err := e.Decide(context.Background(), testAnalysis(0.9), testRecs(), uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if *base.Trigger.ScrollPercentage != baseScrollPct || *base.Trigger.TimeDelayMs != baseDelayMs {
		t.Errorf("base trigger = (%v, %v), want (%v, %v)",
			*base.Trigger.ScrollPercentage, *base.Trigger.TimeDelayMs, baseScrollPct, baseDelayMs)
	}
	if *hot.Trigger.ScrollPercentage != tightScrollPct || *hot.Trigger.TimeDelayMs != tightDelayMs {
		t.Errorf("hot trigger = (%v, %v), want (%v, %v)",
			*hot.Trigger.ScrollPercentage, *hot.Trigger.TimeDelayMs, tightScrollPct, tightDelayMs)
	}
	if !base.Trigger.ExitIntent || !hot.Trigger.ExitIntent {
		t.Error("exit intent should stay enabled in every band")
	}
}

func TestDecideNonAggressiveVisitor(t *testing.T) {
	visitorID := uuid.New()
	prefs := &fakePrefs{prefs: map[uuid.UUID]*domain.VisitorPreferences{
		visitorID: {VisitorID: visitorID, NonAggressive: true, DismissCount: 5},
	}}
	e := NewPolicyEngine(testGenerator(t), prefs, nil)

	cfg, err := e.Decide(context.Background(), testAnalysis(0.9), testRecs(), visitorID)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if cfg == nil {
		t.Fatal("Decide returned nil config")
	}

	if *cfg.Trigger.ScrollPercentage != relaxedScrollPct || *cfg.Trigger.TimeDelayMs != relaxedDelayMs {
		t.Errorf("non-aggressive trigger = (%v, %v), want (%v, %v)",
			*cfg.Trigger.ScrollPercentage, *cfg.Trigger.TimeDelayMs, relaxedScrollPct, relaxedDelayMs)
	}
	if cfg.Targeting.Frequency != domain.FrequencyOncePerDay {
		t.Errorf("Frequency = %q, want %q", cfg.Targeting.Frequency, domain.FrequencyOncePerDay)
	}
}

func TestDecidePreferenceFailureUsesStandardTreatment(t *testing.T) {
	prefs := &fakePrefs{err: errors.New("postgres down")}
	e := NewPolicyEngine(testGenerator(t), prefs, nil)

	cfg, err := e.Decide(context.Background(), testAnalysis(0.9), testRecs(), uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if cfg == nil {
		t.Fatal("Decide returned nil config")
	}
	if *cfg.Trigger.ScrollPercentage != tightScrollPct {
		t.Errorf("ScrollPercentage = %v, want the standard hot-page value %v",
			*cfg.Trigger.ScrollPercentage, tightScrollPct)
	}
}

func TestDecideTargetingDefaults(t *testing.T) {
	e := NewPolicyEngine(testGenerator(t), nil, nil)

	cfg, err := e.Decide(context.Background(), testAnalysis(0.7), testRecs(), uuid.New())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if cfg.Targeting.MaxDisplaysPerUser != 3 {
		t.Errorf("MaxDisplaysPerUser = %d, want 3", cfg.Targeting.MaxDisplaysPerUser)
	}
	if cfg.Targeting.CooldownPeriod != 24*time.Hour {
		t.Errorf("CooldownPeriod = %v, want 24h", cfg.Targeting.CooldownPeriod)
	}
	if cfg.ID == 0 {
		t.Error("popup id should be assigned")
	}
	if len(cfg.Content.Products) != 1 {
		t.Errorf("Content.Products has %d entries, want 1", len(cfg.Content.Products))
	}
}
