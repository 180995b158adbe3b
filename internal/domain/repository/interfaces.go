package repository

import (
	"context"

	"MarketSim/internal/domain/models"
)

// Broadcaster delivers text to a chat channel.
type Broadcaster interface {
	Send(ctx context.Context, channelID, text string) error
}

// TickPublisher streams price ticks and triggered events to a message bus.
type TickPublisher interface {
	PublishBatch(ctx context.Context, ticks []*models.PriceTick) error
	PublishEvent(ctx context.Context, ev *models.TriggeredEvent) error
	Close() error
}

// TickStorage archives price ticks.
type TickStorage interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, ticks []*models.PriceTick) error
	Health(ctx context.Context) error
	Close() error
}

// PortfolioStore persists portfolios keyed by user identity.
type PortfolioStore interface {
	Load(ctx context.Context, userID string) (models.Portfolio, bool, error)
	Save(ctx context.Context, userID string, p models.Portfolio) error
	Close() error
}

type Metrics interface {
	RecordPrice(symbol string, price float64)
	RecordIndex(name string, value float64)
	RecordTick(source string)
	RecordCommand(name string)
	RecordBroadcast(ok bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
