package market

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/models"
)

func newTestBook(opts ...Option) *PriceBook {
	return NewPriceBook([]models.Instrument{
		{Symbol: "APP", Price: 100},
		{Symbol: "MICX", Price: 268.45},
	}, opts...)
}

func TestPriceBook_GetUnknown(t *testing.T) {
	b := newTestBook()

	_, err := b.Get("NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	p, err := b.Get("APP")
	require.NoError(t, err)
	assert.Equal(t, 100.0, p)
}

func TestPriceBook_SetClampsToFloor(t *testing.T) {
	b := newTestBook()

	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"below floor", 0.5, 1.0},
		{"negative", -40, 1.0},
		{"nan", math.NaN(), 1.0},
		{"exact floor", 1.0, 1.0},
		{"regular", 42.5, 42.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.Set("APP", tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			stored, _ := b.Get("APP")
			assert.Equal(t, tc.want, stored)
			h, _ := b.History("APP")
			assert.Equal(t, tc.want, h[len(h)-1])
		})
	}
}

func TestPriceBook_SetRejectsInfinity(t *testing.T) {
	b := newTestBook()
	_, err := b.Set("APP", math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	p, _ := b.Get("APP")
	assert.Equal(t, 100.0, p)
}

func TestPriceBook_SetUnknown(t *testing.T) {
	b := newTestBook()
	_, err := b.Set("NOPE", 10)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestPriceBook_HistoryBounded(t *testing.T) {
	b := newTestBook()

	// Seed sample plus 100 updates: the seed is evicted.
	for i := 1; i <= 100; i++ {
		_, err := b.Set("APP", float64(100+i))
		require.NoError(t, err)
	}
	h, err := b.History("APP")
	require.NoError(t, err)
	assert.Len(t, h, DefaultHistorySize)
	assert.Equal(t, 101.0, h[0])
	assert.Equal(t, 200.0, h[len(h)-1])

	// 101st update evicts the oldest remaining sample.
	_, _ = b.Set("APP", 500)
	h, _ = b.History("APP")
	assert.Len(t, h, DefaultHistorySize)
	assert.Equal(t, 102.0, h[0])
	assert.Equal(t, 500.0, h[len(h)-1])
}

func TestPriceBook_CustomHistorySize(t *testing.T) {
	b := newTestBook(WithHistorySize(3))
	for _, p := range []float64{1, 2, 3, 4, 5} {
		_, _ = b.Set("APP", p)
	}
	h, _ := b.History("APP")
	assert.Equal(t, []float64{3, 4, 5}, h)
}

func TestPriceBook_Trend(t *testing.T) {
	b := newTestBook()

	tr, err := b.Trend("APP")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionFlat, tr.Direction, "single sample is flat")
	assert.Zero(t, tr.Delta)

	_, _ = b.Set("APP", 110)
	tr, _ = b.Trend("APP")
	assert.Equal(t, models.DirectionUp, tr.Direction)
	assert.InDelta(t, 10.0, tr.Delta, 1e-9)

	_, _ = b.Set("APP", 105)
	tr, _ = b.Trend("APP")
	assert.Equal(t, models.DirectionDown, tr.Direction)
	assert.InDelta(t, -5.0, tr.Delta, 1e-9)

	_, _ = b.Set("APP", 105)
	tr, _ = b.Trend("APP")
	assert.Equal(t, models.DirectionFlat, tr.Direction)
	assert.Zero(t, tr.Delta)

	_, err = b.Trend("NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestPriceBook_SnapshotOrder(t *testing.T) {
	b := newTestBook()
	_, _ = b.Set("MICX", 300)

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "APP", snap[0].Symbol)
	assert.Equal(t, "MICX", snap[1].Symbol)
	assert.Equal(t, 300.0, snap[1].Price)
	assert.Equal(t, models.DirectionUp, snap[1].Trend.Direction)
	assert.Equal(t, []string{"APP", "MICX"}, b.Symbols())
}

func TestPriceBook_ObserverReceivesTicks(t *testing.T) {
	b := newTestBook()
	var got []models.PriceTick
	b.Subscribe(func(t models.PriceTick) { got = append(got, t) })

	_, err := b.Apply("APP", models.TickSourceWalk, func(p float64) float64 { return p + 3 })
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "APP", got[0].Symbol)
	assert.Equal(t, 100.0, got[0].Previous)
	assert.Equal(t, 103.0, got[0].Price)
	assert.Equal(t, models.TickSourceWalk, got[0].Source)
}

func TestPriceBook_AnnounceSeed(t *testing.T) {
	b := newTestBook()
	var got []models.PriceTick
	b.Subscribe(func(t models.PriceTick) { got = append(got, t) })

	assert.Equal(t, 2, b.AnnounceSeed())
	require.Len(t, got, 2)
	assert.Equal(t, "APP", got[0].Symbol)
	assert.Equal(t, models.TickSourceSeed, got[1].Source)
	assert.Equal(t, got[1].Price, got[1].Previous)

	h, err := b.History("MICX")
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestPriceBook_ConcurrentApplyNoLostUpdates(t *testing.T) {
	b := newTestBook(WithHistorySize(1000))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Apply("APP", models.TickSourceWalk, func(p float64) float64 { return p + 1 })
		}()
	}
	wg.Wait()

	p, _ := b.Get("APP")
	assert.Equal(t, 150.0, p)
	h, _ := b.History("APP")
	assert.Len(t, h, 51)
}

func TestPriceBook_ObserversSeeCommitOrder(t *testing.T) {
	b := newTestBook(WithHistorySize(1000))
	var (
		mu   sync.Mutex
		seen []float64
	)
	b.Subscribe(func(t models.PriceTick) {
		mu.Lock()
		seen = append(seen, t.Price)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Apply("APP", models.TickSourceWalk, func(p float64) float64 { return p + 1 })
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	for i, p := range seen {
		assert.Equal(t, 101.0+float64(i), p)
	}
}

func TestPriceBook_SlowObserverDoesNotReorder(t *testing.T) {
	b := newTestBook()
	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []float64
	)
	b.Subscribe(func(t models.PriceTick) {
		if t.Price == 111 {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, t.Price)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = b.Set("APP", 111)
	}()
	<-entered
	go func() {
		defer wg.Done()
		_, _ = b.Set("APP", 222)
	}()
	close(release)
	wg.Wait()

	p, _ := b.Get("APP")
	assert.Equal(t, 222.0, p)
	assert.Equal(t, []float64{111, 222}, seen)
}
