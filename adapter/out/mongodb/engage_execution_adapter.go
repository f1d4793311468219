package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"engage_server/core/domain"
)

const collectionRuleExecutions = "rule_executions"

// executionTTLSeconds expires execution records after 90 days.
const executionTTLSeconds = 90 * 24 * 60 * 60

// ExecutionAdapter implements out.RuleExecutionLog using MongoDB.
// Executions are append-only; the TTL index handles retention.
type ExecutionAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewExecutionAdapter creates a new MongoDB execution log adapter.
func NewExecutionAdapter(db *mongo.Database) *ExecutionAdapter {
	return &ExecutionAdapter{
		db:         db,
		collection: db.Collection(collectionRuleExecutions),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ExecutionAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "rule_id", Value: 1},
				{Key: "fired_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "fired_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(executionTTLSeconds),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// executionDocument represents the MongoDB document structure.
type executionDocument struct {
	RuleID          int64    `bson:"rule_id"`
	RuleName        string   `bson:"rule_name"`
	ContentHash     string   `bson:"content_hash"`
	URL             string   `bson:"url,omitempty"`
	MatchedKeywords []string `bson:"matched_keywords,omitempty"`
	IntentScore     float64  `bson:"intent_score"`

	AutoCreateLinks  bool `bson:"auto_create_links"`
	AutoCreatePopups bool `bson:"auto_create_popups"`
	NotifyUser       bool `bson:"notify_user"`

	FiredAt time.Time `bson:"fired_at"`
}

func toExecutionDocument(exec *domain.RuleExecution) *executionDocument {
	return &executionDocument{
		RuleID:           exec.RuleID,
		RuleName:         exec.RuleName,
		ContentHash:      exec.ContentHash,
		URL:              exec.URL,
		MatchedKeywords:  exec.MatchedKeywords,
		IntentScore:      exec.IntentScore,
		AutoCreateLinks:  exec.Actions.AutoCreateLinks,
		AutoCreatePopups: exec.Actions.AutoCreatePopups,
		NotifyUser:       exec.Actions.NotifyUser,
		FiredAt:          exec.FiredAt,
	}
}

func (d *executionDocument) toEntity() *domain.RuleExecution {
	return &domain.RuleExecution{
		RuleID:          d.RuleID,
		RuleName:        d.RuleName,
		ContentHash:     d.ContentHash,
		URL:             d.URL,
		MatchedKeywords: d.MatchedKeywords,
		IntentScore:     d.IntentScore,
		Actions: domain.RuleActions{
			AutoCreateLinks:  d.AutoCreateLinks,
			AutoCreatePopups: d.AutoCreatePopups,
			NotifyUser:       d.NotifyUser,
		},
		FiredAt: d.FiredAt,
	}
}

// Append records one rule firing.
func (a *ExecutionAdapter) Append(ctx context.Context, exec *domain.RuleExecution) error {
	if _, err := a.collection.InsertOne(ctx, toExecutionDocument(exec)); err != nil {
		return fmt.Errorf("failed to append rule execution: %w", err)
	}
	return nil
}

// ListByRule returns the newest executions of one rule.
func (a *ExecutionAdapter) ListByRule(ctx context.Context, ruleID int64, limit int) ([]*domain.RuleExecution, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "fired_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.M{"rule_id": ruleID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule executions: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.RuleExecution
	for cursor.Next(ctx) {
		var doc executionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode rule execution: %w", err)
		}
		results = append(results, doc.toEntity())
	}
	return results, cursor.Err()
}
