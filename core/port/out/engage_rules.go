package out

import (
	"context"

	"engage_server/core/domain"
)

// AutomationRuleRepository is the outbound port to publisher-defined
// automation rules. Rules are read-only to the evaluation core.
type AutomationRuleRepository interface {
	ListEnabled(ctx context.Context) ([]*domain.AutomationRule, error)
	GetByID(ctx context.Context, id int64) (*domain.AutomationRule, error)
	Upsert(ctx context.Context, rule *domain.AutomationRule) error
	Delete(ctx context.Context, id int64) error
}

// RuleExecutionLog records every rule firing for publisher visibility.
type RuleExecutionLog interface {
	Append(ctx context.Context, exec *domain.RuleExecution) error
	ListByRule(ctx context.Context, ruleID int64, limit int) ([]*domain.RuleExecution, error)
}

// ActionDispatcher hands fired rule actions to the external collaborators
// that actually create links, create popups and notify publishers. The
// evaluator itself never performs side effects.
type ActionDispatcher interface {
	DispatchCreateLinks(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error
	DispatchCreatePopup(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error
	DispatchNotify(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis) error
}
