package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"MarketSim/internal/domain/models"
	"MarketSim/internal/domain/repository"
	pkgch "MarketSim/pkg/clickhouse"
	pkgkafka "MarketSim/pkg/kafka"
)

// ClickHouseTickStorage archives ticks into a MergeTree table.
type ClickHouseTickStorage struct {
	db       *sql.DB
	database string
	table    string
}

// NewClickHouseTickStorage creates ClickHouse storage for database.table.
func NewClickHouseTickStorage(db *sql.DB, database, table string) repository.TickStorage {
	return &ClickHouseTickStorage{db: db, database: database, table: table}
}

func (s *ClickHouseTickStorage) qualified() string {
	if s.database == "" {
		return s.table
	}
	return s.database + "." + s.table
}

func (s *ClickHouseTickStorage) Init(ctx context.Context) error {
	if s.database == "" {
		return nil
	}
	return pkgch.FromDB(s.db).InitSchema(ctx, pkgch.TickSchema(s.database, s.table))
}

func (s *ClickHouseTickStorage) StoreBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, t := range ticks[start:end] {
			if t == nil || t.Symbol == "" || t.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				t.Timestamp.UTC(),
				t.Symbol,
				t.Price,
				t.Previous,
				string(t.Source),
				tickID(t),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, previous, source, event_id) VALUES %s", s.qualified(), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert ticks: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseTickStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTickStorage) Close() error {
	return nil // pool owned by pkg/clickhouse.Client
}

func tickID(t *models.PriceTick) string {
	return fmt.Sprintf("%s-%d", t.Symbol, t.Timestamp.UnixNano())
}

// KafkaTickPublisher streams ticks and triggered events as JSON, keyed by symbol.
type KafkaTickPublisher struct {
	producer   *pkgkafka.Producer
	topic      string
	eventTopic string
}

func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic, eventTopic string) repository.TickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic, eventTopic: eventTopic}
}

func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{Key: []byte(t.Symbol), Value: t}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) PublishEvent(ctx context.Context, ev *models.TriggeredEvent) error {
	if p.eventTopic == "" {
		return nil
	}
	return p.producer.Publish(ctx, p.eventTopic, []byte(ev.Event.Symbol), ev)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
