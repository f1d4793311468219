// Package automation evaluates publisher-defined rules against freshly
// analyzed content and dispatches the actions of the rules that fire.
package automation

import (
	"context"
	"strings"
	"time"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"
)

// Evaluator runs every enabled rule against one analysis result. Rules
// are independent: one rule panicking or failing to dispatch never stops
// the others.
type Evaluator struct {
	rules      out.AutomationRuleRepository
	executions out.RuleExecutionLog
	dispatcher out.ActionDispatcher
	log        *logger.Logger
	now        func() time.Time
}

// NewEvaluator creates a rule evaluator. executions and dispatcher may
// be nil; matching still happens, the corresponding side effect is just
// skipped.
func NewEvaluator(rules out.AutomationRuleRepository, executions out.RuleExecutionLog, dispatcher out.ActionDispatcher) *Evaluator {
	return &Evaluator{
		rules:      rules,
		executions: executions,
		dispatcher: dispatcher,
		log:        logger.Default().WithField("component", "automation"),
		now:        time.Now,
	}
}

// EvaluateAll runs the enabled rule set against an analysis and its
// recommendations. Returns the executions of the rules that fired.
// Evaluation is best-effort end to end: a rule listing failure yields an
// empty result, and per-rule failures are logged and skipped.
func (e *Evaluator) EvaluateAll(ctx context.Context, analysis *domain.ContentAnalysis, recs domain.RecommendationSet) []*domain.RuleExecution {
	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		e.log.WithContext(ctx).WithError(err).Error("listing enabled rules failed")
		return nil
	}

	fired := make([]*domain.RuleExecution, 0)
	for _, rule := range rules {
		exec := e.evaluateOne(ctx, rule, analysis, recs)
		if exec != nil {
			fired = append(fired, exec)
		}
	}
	return fired
}

// evaluateOne matches and, on a hit, dispatches one rule. The recover
// fence isolates a misbehaving rule from the rest of the set.
func (e *Evaluator) evaluateOne(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis, recs domain.RecommendationSet) (exec *domain.RuleExecution) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithContext(ctx).Error("rule %d (%s) panicked during evaluation: %v", rule.ID, rule.Name, r)
			exec = nil
		}
	}()

	matched, keywords := e.matches(&rule.Conditions, analysis, recs)
	if !matched {
		return nil
	}

	exec = &domain.RuleExecution{
		RuleID:          rule.ID,
		RuleName:        rule.Name,
		ContentHash:     analysis.Hash,
		URL:             analysis.URL,
		MatchedKeywords: keywords,
		IntentScore:     analysis.IntentScore,
		Actions:         rule.Actions,
		FiredAt:         e.now().UTC(),
	}

	e.dispatch(ctx, rule, analysis, recs)

	if e.executions != nil {
		if err := e.executions.Append(ctx, exec); err != nil {
			e.log.WithContext(ctx).WithError(err).Warn("recording execution of rule %d failed", rule.ID)
		}
	}
	return exec
}

// matches checks the rule's condition conjunction. An absent condition
// is vacuously true; a rule with no conditions at all matches every
// page. Returns the keyword intersection for the execution record.
func (e *Evaluator) matches(cond *domain.RuleConditions, analysis *domain.ContentAnalysis, recs domain.RecommendationSet) (bool, []string) {
	var matchedKeywords []string
	if len(cond.Keywords) > 0 {
		matchedKeywords = intersectKeywords(cond.Keywords, analysis.Keywords)
		if len(matchedKeywords) == 0 {
			return false, nil
		}
	}

	if cond.MinBuyingIntent != nil && analysis.IntentScore < *cond.MinBuyingIntent {
		return false, nil
	}

	if len(cond.Categories) > 0 && !containsFold(cond.Categories, analysis.Category) {
		return false, nil
	}

	if cond.MinCommission != nil && recs.MaxCommission() < *cond.MinCommission {
		return false, nil
	}

	return true, matchedKeywords
}

// dispatch hands each requested action to the dispatcher. Dispatch
// failures do not undo the match; the execution record still notes what
// was requested.
func (e *Evaluator) dispatch(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis, recs domain.RecommendationSet) {
	if e.dispatcher == nil {
		return
	}

	if rule.Actions.AutoCreateLinks {
		if err := e.dispatcher.DispatchCreateLinks(ctx, analysis, recs); err != nil {
			e.log.WithContext(ctx).WithError(err).Warn("rule %d: create-links dispatch failed", rule.ID)
		}
	}
	if rule.Actions.AutoCreatePopups {
		if err := e.dispatcher.DispatchCreatePopup(ctx, analysis, recs); err != nil {
			e.log.WithContext(ctx).WithError(err).Warn("rule %d: create-popup dispatch failed", rule.ID)
		}
	}
	if rule.Actions.NotifyUser {
		if err := e.dispatcher.DispatchNotify(ctx, rule, analysis); err != nil {
			e.log.WithContext(ctx).WithError(err).Warn("rule %d: notify dispatch failed", rule.ID)
		}
	}
}

// intersectKeywords returns the rule keywords found in the page
// keywords, case-insensitively, preserving rule order.
func intersectKeywords(ruleKeywords, pageKeywords []string) []string {
	page := make(map[string]struct{}, len(pageKeywords))
	for _, kw := range pageKeywords {
		page[strings.ToLower(kw)] = struct{}{}
	}

	var matched []string
	for _, kw := range ruleKeywords {
		if _, ok := page[strings.ToLower(kw)]; ok {
			matched = append(matched, kw)
		}
	}
	return matched
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
