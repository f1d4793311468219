package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"engage_server/core/domain"
)

type fakeRuleRepo struct {
	rules []*domain.AutomationRule
	err   error
}

func (f *fakeRuleRepo) ListEnabled(ctx context.Context) ([]*domain.AutomationRule, error) {
	return f.rules, f.err
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id int64) (*domain.AutomationRule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRuleRepo) Upsert(ctx context.Context, rule *domain.AutomationRule) error { return nil }
func (f *fakeRuleRepo) Delete(ctx context.Context, id int64) error                    { return nil }

type fakeExecLog struct {
	appended []*domain.RuleExecution
	err      error
}

func (f *fakeExecLog) Append(ctx context.Context, exec *domain.RuleExecution) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, exec)
	return nil
}

func (f *fakeExecLog) ListByRule(ctx context.Context, ruleID int64, limit int) ([]*domain.RuleExecution, error) {
	return f.appended, nil
}

type fakeDispatcher struct {
	links   int
	popups  int
	notices int
	err     error
}

func (f *fakeDispatcher) DispatchCreateLinks(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error {
	f.links++
	return f.err
}

func (f *fakeDispatcher) DispatchCreatePopup(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error {
	f.popups++
	return f.err
}

func (f *fakeDispatcher) DispatchNotify(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis) error {
	f.notices++
	return f.err
}

func floatPtr(v float64) *float64 { return &v }

func analysisFixture() *domain.ContentAnalysis {
	return &domain.ContentAnalysis{
		Hash:        domain.ContentHash("page"),
		URL:         "https://example.com/headphones",
		Keywords:    []string{"best", "review", "deals", "wireless", "headphones"},
		IntentScore: 0.72,
		Category:    "technology",
		Sentiment:   domain.SentimentNeutral,
		AnalyzedAt:  time.Now().UTC(),
	}
}

func recsFixture(commission float64) domain.RecommendationSet {
	return domain.RecommendationSet{
		{
			Product: domain.Product{
				ID:             1,
				Name:           "wireless headphones",
				Category:       "technology",
				Price:          59.99,
				CommissionRate: commission,
				AffiliateURL:   "https://aff.example/1",
			},
			RelevanceScore: 10,
		},
	}
}

func rule(id int64, conditions domain.RuleConditions, actions domain.RuleActions) *domain.AutomationRule {
	return &domain.AutomationRule{
		ID:         id,
		Name:       "rule",
		Enabled:    true,
		Conditions: conditions,
		Actions:    actions,
	}
}

func TestEvaluateAllMatchingRule(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*domain.AutomationRule{
		rule(1,
			domain.RuleConditions{
				Keywords:        []string{"headphones", "laptops"},
				MinBuyingIntent: floatPtr(0.6),
				Categories:      []string{"technology"},
				MinCommission:   floatPtr(5),
			},
			domain.RuleActions{AutoCreateLinks: true, NotifyUser: true},
		),
	}}
	execLog := &fakeExecLog{}
	dispatcher := &fakeDispatcher{}
	e := NewEvaluator(repo, execLog, dispatcher)

	fired := e.EvaluateAll(context.Background(), analysisFixture(), recsFixture(8))

	if len(fired) != 1 {
		t.Fatalf("%d rules fired, want 1", len(fired))
	}
	exec := fired[0]
	if exec.RuleID != 1 {
		t.Errorf("RuleID = %d, want 1", exec.RuleID)
	}
	if len(exec.MatchedKeywords) != 1 || exec.MatchedKeywords[0] != "headphones" {
		t.Errorf("MatchedKeywords = %v, want [headphones]", exec.MatchedKeywords)
	}
	if dispatcher.links != 1 || dispatcher.notices != 1 || dispatcher.popups != 0 {
		t.Errorf("dispatch counts = (links %d, popups %d, notices %d), want (1, 0, 1)",
			dispatcher.links, dispatcher.popups, dispatcher.notices)
	}
	if len(execLog.appended) != 1 {
		t.Errorf("%d executions recorded, want 1", len(execLog.appended))
	}
}

func TestEvaluateConditionConjunction(t *testing.T) {
	tests := []struct {
		name       string
		conditions domain.RuleConditions
		commission float64
		wantFired  bool
	}{
		{
			name:       "no conditions matches everything",
			conditions: domain.RuleConditions{},
			commission: 1,
			wantFired:  true,
		},
		{
			name:       "keyword miss blocks",
			conditions: domain.RuleConditions{Keywords: []string{"mattress"}},
			commission: 8,
			wantFired:  false,
		},
		{
			name:       "intent below minimum blocks",
			conditions: domain.RuleConditions{MinBuyingIntent: floatPtr(0.9)},
			commission: 8,
			wantFired:  false,
		},
		{
			name:       "category mismatch blocks",
			conditions: domain.RuleConditions{Categories: []string{"travel", "food"}},
			commission: 8,
			wantFired:  false,
		},
		{
			name:       "commission below minimum blocks",
			conditions: domain.RuleConditions{MinCommission: floatPtr(10)},
			commission: 8,
			wantFired:  false,
		},
		{
			name: "all conditions met fires",
			conditions: domain.RuleConditions{
				Keywords:        []string{"WIRELESS"},
				MinBuyingIntent: floatPtr(0.7),
				Categories:      []string{"Technology"},
				MinCommission:   floatPtr(8),
			},
			commission: 8,
			wantFired:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRuleRepo{rules: []*domain.AutomationRule{
				rule(1, tt.conditions, domain.RuleActions{NotifyUser: true}),
			}}
			e := NewEvaluator(repo, &fakeExecLog{}, &fakeDispatcher{})

			fired := e.EvaluateAll(context.Background(), analysisFixture(), recsFixture(tt.commission))
			if (len(fired) == 1) != tt.wantFired {
				t.Errorf("fired = %d rules, wantFired = %v", len(fired), tt.wantFired)
			}
		})
	}
}

func TestEvaluateRuleIsolation(t *testing.T) {
	// A rule with a condition that panics during evaluation must not stop
	// the rules after it.
	panicking := rule(1, domain.RuleConditions{MinBuyingIntent: floatPtr(0.1)}, domain.RuleActions{NotifyUser: true})
	healthy := rule(2, domain.RuleConditions{}, domain.RuleActions{NotifyUser: true})
	repo := &fakeRuleRepo{rules: []*domain.AutomationRule{panicking, healthy}}

	dispatcher := &panickingDispatcher{panicOnRule: 1}
	e := NewEvaluator(repo, &fakeExecLog{}, dispatcher)

	fired := e.EvaluateAll(context.Background(), analysisFixture(), recsFixture(8))
	if len(fired) != 1 {
		t.Fatalf("%d rules fired, want 1 (the healthy rule)", len(fired))
	}
	if fired[0].RuleID != 2 {
		t.Errorf("surviving rule = %d, want 2", fired[0].RuleID)
	}
}

type panickingDispatcher struct {
	panicOnRule int64
	fakeDispatcher
}

func (p *panickingDispatcher) DispatchNotify(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis) error {
	if rule.ID == p.panicOnRule {
		panic("dispatcher blew up")
	}
	return p.fakeDispatcher.DispatchNotify(ctx, rule, analysis)
}

func TestEvaluateDispatchFailureStillRecords(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*domain.AutomationRule{
		rule(1, domain.RuleConditions{}, domain.RuleActions{AutoCreatePopups: true}),
	}}
	execLog := &fakeExecLog{}
	dispatcher := &fakeDispatcher{err: errors.New("stream down")}
	e := NewEvaluator(repo, execLog, dispatcher)

	fired := e.EvaluateAll(context.Background(), analysisFixture(), recsFixture(8))
	if len(fired) != 1 {
		t.Fatalf("%d rules fired, want 1", len(fired))
	}
	if len(execLog.appended) != 1 {
		t.Errorf("%d executions recorded, want 1 despite dispatch failure", len(execLog.appended))
	}
}

func TestEvaluateListFailureYieldsEmpty(t *testing.T) {
	repo := &fakeRuleRepo{err: errors.New("postgres down")}
	e := NewEvaluator(repo, &fakeExecLog{}, &fakeDispatcher{})

	fired := e.EvaluateAll(context.Background(), analysisFixture(), recsFixture(8))
	if len(fired) != 0 {
		t.Errorf("%d rules fired, want 0", len(fired))
	}
}
