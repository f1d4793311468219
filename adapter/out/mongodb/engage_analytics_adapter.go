package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"engage_server/core/port/out"
)

// =============================================================================
// MongoDB Analytics Adapter
// =============================================================================

const collectionPageStats = "page_stats"

// AnalyticsAdapter implements out.AnalyticsRepository using MongoDB.
// Documents aggregate per (url, popup): counters are summed with $inc,
// and intent scores accumulate as a running total plus sample count so
// the average never needs rewriting on ingest.
type AnalyticsAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewAnalyticsAdapter creates a new MongoDB analytics adapter.
func NewAnalyticsAdapter(db *mongo.Database) *AnalyticsAdapter {
	return &AnalyticsAdapter{
		db:         db,
		collection: db.Collection(collectionPageStats),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *AnalyticsAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "url", Value: 1},
				{Key: "popup_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "last_event_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// pageStatsDocument represents the MongoDB document structure.
type pageStatsDocument struct {
	URL     string `bson:"url"`
	PopupID int64  `bson:"popup_id"`

	Displays      int64 `bson:"displays"`
	Closes        int64 `bson:"closes"`
	CTAClicks     int64 `bson:"cta_clicks"`
	ProductClicks int64 `bson:"product_clicks"`

	IntentScoreTotal   float64 `bson:"intent_score_total"`
	IntentScoreSamples int64   `bson:"intent_score_samples"`

	LastEventAt time.Time `bson:"last_event_at"`
}

// PageStats is the read model served to the dashboard.
type PageStats struct {
	URL            string    `json:"url"`
	PopupID        int64     `json:"popup_id"`
	Displays       int64     `json:"displays"`
	Closes         int64     `json:"closes"`
	CTAClicks      int64     `json:"cta_clicks"`
	ProductClicks  int64     `json:"product_clicks"`
	AvgIntentScore float64   `json:"avg_intent_score"`
	LastEventAt    time.Time `json:"last_event_at"`
}

func (d *pageStatsDocument) toStats() *PageStats {
	stats := &PageStats{
		URL:           d.URL,
		PopupID:       d.PopupID,
		Displays:      d.Displays,
		Closes:        d.Closes,
		CTAClicks:     d.CTAClicks,
		ProductClicks: d.ProductClicks,
		LastEventAt:   d.LastEventAt,
	}
	if d.IntentScoreSamples > 0 {
		stats.AvgIntentScore = d.IntentScoreTotal / float64(d.IntentScoreSamples)
	}
	return stats
}

// ApplyDelta folds one event's contribution into the page aggregate.
// The upsert makes ingestion order-free and restart-safe.
func (a *AnalyticsAdapter) ApplyDelta(ctx context.Context, delta *out.PageStatsDelta) error {
	filter := bson.M{"url": delta.URL, "popup_id": delta.PopupID}

	inc := bson.M{
		"displays":       delta.Displays,
		"closes":         delta.Closes,
		"cta_clicks":     delta.CTAClicks,
		"product_clicks": delta.ProductClicks,
	}
	if delta.HasIntent {
		inc["intent_score_total"] = delta.IntentScore
		inc["intent_score_samples"] = 1
	}

	update := bson.M{
		"$inc": inc,
		"$max": bson.M{"last_event_at": delta.ObservedAt},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := a.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to apply stats delta: %w", err)
	}
	return nil
}

// GetByURL returns the aggregates for one page, every popup included.
func (a *AnalyticsAdapter) GetByURL(ctx context.Context, url string) ([]*PageStats, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"url": url})
	if err != nil {
		return nil, fmt.Errorf("failed to query page stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*PageStats
	for cursor.Next(ctx) {
		var doc pageStatsDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode page stats: %w", err)
		}
		results = append(results, doc.toStats())
	}
	return results, cursor.Err()
}

// TopPages returns the most recently active pages ordered by displays.
func (a *AnalyticsAdapter) TopPages(ctx context.Context, limit int) ([]*PageStats, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "displays", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query top pages: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*PageStats
	for cursor.Next(ctx) {
		var doc pageStatsDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode page stats: %w", err)
		}
		results = append(results, doc.toStats())
	}
	return results, cursor.Err()
}
