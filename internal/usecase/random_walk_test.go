package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	applogger "MarketSim/pkg/logger"
)

func TestRandomWalker_StepBounds(t *testing.T) {
	book := market.NewPriceBook([]models.Instrument{{Symbol: "A", Price: 50}, {Symbol: "B", Price: 3}})
	w := NewRandomWalker(book, newFakeMetrics(), applogger.Nop(), time.Second, 5)

	w.rnd = func() float64 { return 0 }
	w.Step()
	a, _ := book.Get("A")
	b, _ := book.Get("B")
	assert.InDelta(t, 45, a, 1e-9)
	assert.Equal(t, market.PriceFloor, b)

	w.rnd = func() float64 { return 1 }
	w.Step()
	a, _ = book.Get("A")
	b, _ = book.Get("B")
	assert.InDelta(t, 50, a, 1e-9)
	assert.InDelta(t, 6, b, 1e-9)

	w.rnd = func() float64 { return 0.5 }
	w.Step()
	a, _ = book.Get("A")
	assert.InDelta(t, 50, a, 1e-9)
}

func TestRandomWalker_StepsStayWithinMaxStep(t *testing.T) {
	book := market.NewPriceBook([]models.Instrument{{Symbol: "A", Price: 500}})
	w := NewRandomWalker(book, newFakeMetrics(), applogger.Nop(), time.Second, 5)

	prev := 500.0
	for i := 0; i < 200; i++ {
		w.Step()
		p, err := book.Get("A")
		require.NoError(t, err)
		assert.LessOrEqual(t, p-prev, 5.0)
		assert.GreaterOrEqual(t, p-prev, -5.0)
		prev = p
	}
}

func TestRandomWalker_RunStopsOnCancel(t *testing.T) {
	book := newBook()
	w := NewRandomWalker(book, newFakeMetrics(), applogger.Nop(), time.Millisecond, 5)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		h, _ := book.History("MICX")
		return len(h) > 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("walker did not stop")
	}
}
