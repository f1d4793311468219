// Package messaging provides Redis Streams adapters for telemetry and
// automation action dispatch.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	StreamEvents      = "engage:events"
	StreamCreateLinks = "engage:links"
	StreamCreatePopup = "engage:popups"
	StreamNotify      = "engage:notify"
)

// RedisProducer implements out.EventProducer and out.ActionDispatcher
// using Redis Streams. Telemetry publishes run behind a circuit breaker
// so a struggling Redis never backs up into the trigger path.
type RedisProducer struct {
	client  *redis.Client
	breaker *resilience.CircuitBreaker
}

// NewRedisProducer creates a new RedisProducer.
func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{
		client:  client,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("event-stream")),
	}
}

// PublishTriggerEvent publishes one popup lifecycle event.
func (p *RedisProducer) PublishTriggerEvent(ctx context.Context, event *out.TriggerEvent) error {
	return p.breaker.Execute(func() error {
		return p.publish(ctx, StreamEvents, event)
	})
}

// =============================================================================
// Automation action dispatch
// =============================================================================

// actionPayload is the envelope written to the action streams.
type actionPayload struct {
	ContentHash string                   `json:"content_hash"`
	URL         string                   `json:"url,omitempty"`
	Category    string                   `json:"category"`
	IntentScore float64                  `json:"intent_score"`
	Products    domain.RecommendationSet `json:"products,omitempty"`
	RuleID      int64                    `json:"rule_id,omitempty"`
	RuleName    string                   `json:"rule_name,omitempty"`
}

// DispatchCreateLinks queues affiliate link creation for the matched
// products.
func (p *RedisProducer) DispatchCreateLinks(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error {
	return p.publish(ctx, StreamCreateLinks, &actionPayload{
		ContentHash: analysis.Hash,
		URL:         analysis.URL,
		Category:    analysis.Category,
		IntentScore: analysis.IntentScore,
		Products:    products,
	})
}

// DispatchCreatePopup queues popup creation for the analyzed page.
func (p *RedisProducer) DispatchCreatePopup(ctx context.Context, analysis *domain.ContentAnalysis, products domain.RecommendationSet) error {
	return p.publish(ctx, StreamCreatePopup, &actionPayload{
		ContentHash: analysis.Hash,
		URL:         analysis.URL,
		Category:    analysis.Category,
		IntentScore: analysis.IntentScore,
		Products:    products,
	})
}

// DispatchNotify queues a publisher notification about the fired rule.
func (p *RedisProducer) DispatchNotify(ctx context.Context, rule *domain.AutomationRule, analysis *domain.ContentAnalysis) error {
	return p.publish(ctx, StreamNotify, &actionPayload{
		ContentHash: analysis.Hash,
		URL:         analysis.URL,
		Category:    analysis.Category,
		IntentScore: analysis.IntentScore,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
	})
}

// publish writes one payload to a stream.
func (p *RedisProducer) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}

// Ensure RedisProducer implements its ports
var (
	_ out.EventProducer    = (*RedisProducer)(nil)
	_ out.ActionDispatcher = (*RedisProducer)(nil)
)
