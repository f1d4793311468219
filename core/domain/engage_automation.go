package domain

import "time"

// =============================================================================
// AutomationRule - publisher-defined condition/action sets
// =============================================================================

// RuleConditions is the conjunction a content analysis must satisfy for a
// rule to fire. Every field is optional; an absent condition is vacuously
// true.
type RuleConditions struct {
	Keywords       []string `json:"keywords,omitempty"`
	MinBuyingIntent *float64 `json:"min_buying_intent,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	MinCommission  *float64 `json:"min_commission,omitempty"`
}

// RuleActions are the side effects a fired rule requests. Execution is
// delegated to external collaborators; the core only dispatches.
type RuleActions struct {
	AutoCreateLinks  bool `json:"auto_create_links"`
	AutoCreatePopups bool `json:"auto_create_popups"`
	NotifyUser       bool `json:"notify_user"`
}

// AutomationRule is owned by the publisher and read-only to the core.
type AutomationRule struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Enabled    bool           `json:"enabled"`
	Conditions RuleConditions `json:"conditions"`
	Actions    RuleActions    `json:"actions"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RuleExecution is the record appended whenever a rule fires.
type RuleExecution struct {
	RuleID          int64       `json:"rule_id"`
	RuleName        string      `json:"rule_name"`
	ContentHash     string      `json:"content_hash"`
	URL             string      `json:"url,omitempty"`
	MatchedKeywords []string    `json:"matched_keywords,omitempty"`
	IntentScore     float64     `json:"intent_score"`
	Actions         RuleActions `json:"actions"`
	FiredAt         time.Time   `json:"fired_at"`
}
