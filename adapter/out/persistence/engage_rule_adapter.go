package persistence

import (
	"context"
	"database/sql"
	"time"

	"engage_server/core/domain"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// AutomationRuleAdapter implements out.AutomationRuleRepository using
// PostgreSQL. Conditions and actions are stored as JSONB so publishers
// can extend rules without schema churn.
type AutomationRuleAdapter struct {
	db *sqlx.DB
}

// NewAutomationRuleAdapter creates a new AutomationRuleAdapter.
func NewAutomationRuleAdapter(db *sqlx.DB) *AutomationRuleAdapter {
	return &AutomationRuleAdapter{db: db}
}

// automationRuleRow represents the database row for automation rules.
type automationRuleRow struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Enabled    bool      `db:"enabled"`
	Conditions []byte    `db:"conditions"`
	Actions    []byte    `db:"actions"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *automationRuleRow) toEntity() (*domain.AutomationRule, error) {
	rule := &domain.AutomationRule{
		ID:        r.ID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Conditions) > 0 {
		if err := json.Unmarshal(r.Conditions, &rule.Conditions); err != nil {
			return nil, err
		}
	}
	if len(r.Actions) > 0 {
		if err := json.Unmarshal(r.Actions, &rule.Actions); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

const ruleColumns = `id, name, enabled, conditions, actions, created_at, updated_at`

// ListEnabled returns all enabled rules ordered by id.
func (a *AutomationRuleAdapter) ListEnabled(ctx context.Context) ([]*domain.AutomationRule, error) {
	const query = `
		SELECT ` + ruleColumns + `
		FROM automation_rules
		WHERE enabled = true
		ORDER BY id
	`

	var rows []automationRuleRow
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	rules := make([]*domain.AutomationRule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// GetByID retrieves one rule.
func (a *AutomationRuleAdapter) GetByID(ctx context.Context, id int64) (*domain.AutomationRule, error) {
	const query = `
		SELECT ` + ruleColumns + `
		FROM automation_rules
		WHERE id = $1
	`

	var row automationRuleRow
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toEntity()
}

// Upsert creates or updates a rule. A zero id inserts and assigns one.
func (a *AutomationRuleAdapter) Upsert(ctx context.Context, rule *domain.AutomationRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return err
	}

	if rule.ID == 0 {
		const insert = `
			INSERT INTO automation_rules (name, enabled, conditions, actions, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id
		`
		return a.db.QueryRowxContext(ctx, insert, rule.Name, rule.Enabled, conditions, actions).Scan(&rule.ID)
	}

	const update = `
		INSERT INTO automation_rules (id, name, enabled, conditions, actions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = NOW()
	`
	_, err = a.db.ExecContext(ctx, update, rule.ID, rule.Name, rule.Enabled, conditions, actions)
	return err
}

// Delete removes a rule.
func (a *AutomationRuleAdapter) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM automation_rules WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
