package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"engage_server/core/port/out"
)

// AggregatorConfig holds aggregation pool configuration.
type AggregatorConfig struct {
	Workers        int           // concurrent delta writers
	BatchSize      int           // events handed to a worker at once
	WorkerChanSize int           // per-worker channel buffer
	ApplyTimeout   time.Duration // per-event write deadline
}

// DefaultAggregatorConfig returns default aggregator configuration.
func DefaultAggregatorConfig() *AggregatorConfig {
	return &AggregatorConfig{
		Workers:        8,
		BatchSize:      10,
		WorkerChanSize: 100,
		ApplyTimeout:   10 * time.Second,
	}
}

// Aggregator folds popup trigger events into the per-page analytics
// aggregates and the visitor click history. It consumes the event
// stream through the messaging consumer and fans writes out over a
// go-pkgz/pool worker group, so a slow Mongo write never blocks the
// stream read loop.
type Aggregator struct {
	analytics out.AnalyticsRepository
	history   out.HistoryStore
	config    *AggregatorConfig

	pool   *pool.WorkerGroup[*out.TriggerEvent]
	ctx    context.Context
	cancel context.CancelFunc

	processed int64
	failed    int64
	dropped   int64

	log     zerolog.Logger
	started bool
	mu      sync.Mutex
}

// eventWorker implements pool.Worker for TriggerEvent processing.
type eventWorker struct {
	agg *Aggregator
}

// Do implements pool.Worker interface.
func (w *eventWorker) Do(ctx context.Context, event *out.TriggerEvent) error {
	return w.agg.apply(ctx, event)
}

// NewAggregator creates a new telemetry aggregator.
func NewAggregator(analytics out.AnalyticsRepository, history out.HistoryStore, config *AggregatorConfig, log zerolog.Logger) *Aggregator {
	if config == nil {
		config = DefaultAggregatorConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Aggregator{
		analytics: analytics,
		history:   history,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		log:       log.With().Str("component", "telemetry_aggregator").Logger(),
	}
}

// Start starts the aggregation pool.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return
	}

	a.pool = pool.New[*out.TriggerEvent](a.config.Workers, &eventWorker{agg: a}).
		WithBatchSize(a.config.BatchSize).
		WithWorkerChanSize(a.config.WorkerChanSize).
		WithContinueOnError()

	if err := a.pool.Go(a.ctx); err != nil {
		a.log.Error().Err(err).Msg("failed to start aggregation pool")
		return
	}

	a.started = true

	a.log.Info().
		Int("workers", a.config.Workers).
		Int("batch_size", a.config.BatchSize).
		Msg("telemetry aggregator started")
}

// Stop drains the pool and stops the aggregator.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	a.mu.Unlock()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()

	if err := a.pool.Close(closeCtx); err != nil {
		a.log.Warn().Err(err).Msg("error closing aggregation pool")
	}

	a.cancel()

	a.log.Info().
		Int64("processed", atomic.LoadInt64(&a.processed)).
		Int64("failed", atomic.LoadInt64(&a.failed)).
		Int64("dropped", atomic.LoadInt64(&a.dropped)).
		Msg("telemetry aggregator stopped")
}

// Handle implements the stream event handler. It decodes one trigger
// event and submits it to the aggregation pool.
func (a *Aggregator) Handle(_ context.Context, stream string, data []byte) error {
	var event out.TriggerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode trigger event: %w", err)
	}

	if !out.ValidTriggerEventType(string(event.EventType)) {
		// Ack unknown events instead of retrying them into the DLQ.
		atomic.AddInt64(&a.dropped, 1)
		a.log.Warn().
			Str("stream", stream).
			Str("event_type", string(event.EventType)).
			Int64("event_id", event.EventID).
			Msg("dropping event of unknown type")
		return nil
	}

	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started {
		return fmt.Errorf("aggregator not started")
	}

	a.pool.Submit(&event)
	return nil
}

// apply folds one event into the aggregates.
func (a *Aggregator) apply(ctx context.Context, event *out.TriggerEvent) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.ApplyTimeout)
	defer cancel()

	delta := eventDelta(event)
	if err := a.analytics.ApplyDelta(ctx, delta); err != nil {
		atomic.AddInt64(&a.failed, 1)
		a.log.Error().
			Err(err).
			Int64("event_id", event.EventID).
			Str("event_type", string(event.EventType)).
			Msg("failed to apply analytics delta")
		return err
	}

	if event.EventType == out.EventProductClicked {
		if err := a.recordClick(ctx, event); err != nil {
			// The aggregate write already landed, so log and move on
			// rather than retrying the whole event.
			a.log.Warn().
				Err(err).
				Int64("event_id", event.EventID).
				Int64("product_id", event.ProductID).
				Msg("failed to record product click")
		}
	}

	atomic.AddInt64(&a.processed, 1)
	return nil
}

// recordClick upserts the visitor→product history edge behind a
// product_clicked event. Anonymous visitors carry no history.
func (a *Aggregator) recordClick(ctx context.Context, event *out.TriggerEvent) error {
	if a.history == nil || event.ProductID == 0 || event.VisitorID == "" {
		return nil
	}

	visitorID, err := uuid.Parse(event.VisitorID)
	if err != nil || visitorID == uuid.Nil {
		return nil
	}

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return a.history.RecordProductClick(ctx, visitorID, event.ProductID, at)
}

// eventDelta maps one trigger event to its contribution to the
// per-page aggregates. Intent scores ride only on display events so
// the average reflects pages at decision time, not close clicks.
func eventDelta(event *out.TriggerEvent) *out.PageStatsDelta {
	delta := &out.PageStatsDelta{
		URL:        event.URL,
		PopupID:    event.PopupID,
		ObservedAt: event.Timestamp,
	}
	if delta.ObservedAt.IsZero() {
		delta.ObservedAt = time.Now().UTC()
	}

	switch event.EventType {
	case out.EventPopupDisplayed:
		delta.Displays = 1
		if event.IntentScore > 0 {
			delta.IntentScore = event.IntentScore
			delta.HasIntent = true
		}
	case out.EventPopupClosed:
		delta.Closes = 1
	case out.EventPopupCTAClicked:
		delta.CTAClicks = 1
	case out.EventProductClicked:
		delta.ProductClicks = 1
	}

	return delta
}
