package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/models"
)

func TestClickHouseTickStorage_StoreBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	ticks := []*models.PriceTick{
		{Symbol: "MICX", Price: 270, Previous: 268.45, Source: models.TickSourceWalk, Timestamp: ts},
		nil,
		{Symbol: "", Price: 1, Timestamp: ts},
		{Symbol: "GLDR", Price: 200, Previous: 201.3, Source: models.TickSourceEvent, Timestamp: ts},
	}

	mock.ExpectExec(`INSERT INTO marketsim\.price_ticks \(ts, symbol, price, previous, source, event_id\) VALUES \(\?, \?, \?, \?, \?, \?\),\(\?, \?, \?, \?, \?, \?\)`).
		WithArgs(ts, "MICX", 270.0, 268.45, "walk", sqlmock.AnyArg(), ts, "GLDR", 200.0, 201.3, "event", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewClickHouseTickStorage(db, "marketsim", "price_ticks")
	require.NoError(t, s.StoreBatch(context.Background(), ticks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseTickStorage_StoreBatchChunksWithoutTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	ticks := make([]*models.PriceTick, 2001)
	for i := range ticks {
		ticks[i] = &models.PriceTick{Symbol: "MICX", Price: 270, Source: models.TickSourceWalk, Timestamp: ts}
	}

	// Any Begin or Commit would be an unexpected call.
	mock.ExpectExec(`INSERT INTO price_ticks`).WillReturnResult(sqlmock.NewResult(0, 2000))
	mock.ExpectExec(`INSERT INTO price_ticks`).WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewClickHouseTickStorage(db, "", "price_ticks")
	require.NoError(t, s.StoreBatch(context.Background(), ticks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseTickStorage_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO price_ticks`).WillReturnError(errors.New("table missing"))

	s := NewClickHouseTickStorage(db, "", "price_ticks")
	err = s.StoreBatch(context.Background(), []*models.PriceTick{{Symbol: "MICX", Price: 2, Source: models.TickSourceWalk, Timestamp: time.Now()}})
	assert.ErrorContains(t, err, "table missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseTickStorage_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE DATABASE IF NOT EXISTS marketsim`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS marketsim\.price_ticks`).WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewClickHouseTickStorage(db, "marketsim", "price_ticks")
	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseTickStorage_EmptyBatchIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewClickHouseTickStorage(db, "marketsim", "price_ticks")
	require.NoError(t, s.StoreBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
