package bootstrap

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"engage_server/adapter/in/worker"
	"engage_server/adapter/out/messaging"
	"engage_server/config"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker is the telemetry aggregation process: it consumes the popup
// event stream and maintains the analytics aggregates.
type Worker struct {
	aggregator *worker.Aggregator
	consumer   *messaging.Consumer
	deps       *Dependencies
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	zlog       zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "engage-worker",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}
	if deps.AnalyticsRepo == nil {
		cleanup()
		return nil, nil, errors.New("worker mode requires MongoDB for analytics aggregates")
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	var history out.HistoryStore
	if deps.HistoryStore != nil {
		history = deps.HistoryStore
	}

	aggConfig := worker.DefaultAggregatorConfig()
	if cfg.WorkerMax > 0 {
		aggConfig.Workers = cfg.WorkerMax
	}
	aggregator := worker.NewAggregator(deps.AnalyticsRepo, history, aggConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		aggregator: aggregator,
		deps:       deps,
		ctx:        ctx,
		cancel:     cancel,
		zlog:       zlog,
	}

	w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
		Group:                "engage-workers",
		Consumer:             cfg.ConsumerID,
		Streams:              []string{messaging.StreamEvents},
		Handler:              aggregator,
		Logger:               zlog,
		PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
		MaxRetries:           cfg.ConsumerMaxRetries,
	})
	logger.Info("Redis Stream Consumer configured for %s", messaging.StreamEvents)

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.aggregator.Start()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.zlog.Info().Msg("starting event stream consumer")
		if err := w.consumer.Run(w.ctx); err != nil && err != context.Canceled {
			w.zlog.Error().Err(err).Msg("event stream consumer error")
		}
	}()
}

func (w *Worker) Stop() {
	w.zlog.Info().Msg("stopping worker")
	w.cancel()
	w.wg.Wait()
	w.aggregator.Stop()
	w.zlog.Info().Msg("worker stopped")
}
