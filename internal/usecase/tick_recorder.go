package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
)

const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// TickRecorder routes committed ticks to the configured sink backend.
type TickRecorder struct {
	pub     drepo.TickPublisher
	store   drepo.TickStorage
	metrics drepo.Metrics
	backend string
}

func NewTickRecorder(
	pub drepo.TickPublisher,
	store drepo.TickStorage,
	metrics drepo.Metrics,
	backend string,
) *TickRecorder {
	if backend == "" {
		backend = BackendNone
	}
	return &TickRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Backend names the active sink.
func (p *TickRecorder) Backend() string { return p.backend }

// ProcessBatch writes ticks to the sink in one call. Price and tick counters
// are kept by the book observer, not here.
func (p *TickRecorder) ProcessBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendNone:
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, ticks)
	case BackendClickHouse:
		err = p.store.StoreBatch(ctx, ticks)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}

	p.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// RecordEvent publishes a triggered event. Only the kafka backend carries events.
func (p *TickRecorder) RecordEvent(ctx context.Context, ev *models.TriggeredEvent) error {
	if ev == nil || p.backend != BackendKafka {
		return nil
	}
	if err := p.pub.PublishEvent(ctx, ev); err != nil {
		p.metrics.RecordError("record_event")
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Close closes underlying resources if available.
func (p *TickRecorder) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
