package market

import (
	"fmt"
	"math"
	"sync"
	"time"

	"MarketSim/internal/domain/models"
)

const (
	DefaultHistorySize = 100
	PriceFloor         = 1.0
)

// Observer receives every committed tick, in commit order. It runs outside the book's
// lock but must not call back into the book.
type Observer func(models.PriceTick)

// Option configures PriceBook.
type Option func(*PriceBook)

// WithHistorySize bounds the per-symbol history window.
func WithHistorySize(n int) Option {
	return func(b *PriceBook) {
		if n >= 2 {
			b.historySize = n
		}
	}
}

// WithClock overrides the timestamp source for ticks.
func WithClock(now func() time.Time) Option {
	return func(b *PriceBook) {
		if now != nil {
			b.now = now
		}
	}
}

// PriceBook is the single mutable source of truth for instrument prices.
// A single RWMutex guards all symbols; writers are serialized, readers see a
// consistent view per call.
type PriceBook struct {
	mu          sync.RWMutex
	order       []string
	prices      map[string]float64
	history     map[string][]float64
	historySize int
	now         func() time.Time

	obsMu     sync.RWMutex
	observers []Observer

	// deliverMu is taken before mu is released, so ticks reach observers in the
	// order they were committed.
	deliverMu sync.Mutex
}

// NewPriceBook seeds the book. The seed price is the first history sample.
func NewPriceBook(instruments []models.Instrument, opts ...Option) *PriceBook {
	b := &PriceBook{
		prices:      make(map[string]float64, len(instruments)),
		history:     make(map[string][]float64, len(instruments)),
		historySize: DefaultHistorySize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, in := range instruments {
		if _, dup := b.prices[in.Symbol]; dup {
			continue
		}
		p := clamp(in.Price)
		b.order = append(b.order, in.Symbol)
		b.prices[in.Symbol] = p
		b.history[in.Symbol] = append(make([]float64, 0, b.historySize), p)
	}
	return b
}

// Subscribe registers an observer for future commits.
func (b *PriceBook) Subscribe(o Observer) {
	b.obsMu.Lock()
	b.observers = append(b.observers, o)
	b.obsMu.Unlock()
}

// AnnounceSeed emits one seed tick per instrument so observers start from the opening prices.
// Prices and history are left untouched.
func (b *PriceBook) AnnounceSeed() int {
	b.mu.RLock()
	now := b.now()
	ticks := make([]models.PriceTick, 0, len(b.order))
	for _, s := range b.order {
		p := b.prices[s]
		ticks = append(ticks, models.PriceTick{Symbol: s, Price: p, Previous: p, Source: models.TickSourceSeed, Timestamp: now})
	}
	b.deliverMu.Lock()
	b.mu.RUnlock()
	defer b.deliverMu.Unlock()

	for _, t := range ticks {
		b.notify(t)
	}
	return len(ticks)
}

// Symbols returns instrument symbols in seed order.
func (b *PriceBook) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Has reports whether symbol is a known instrument.
func (b *PriceBook) Has(symbol string) bool {
	b.mu.RLock()
	_, ok := b.prices[symbol]
	b.mu.RUnlock()
	return ok
}

func (b *PriceBook) Get(symbol string) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return p, nil
}

// Set stores price (clamped to PriceFloor) and returns the stored value.
func (b *PriceBook) Set(symbol string, price float64) (float64, error) {
	tick, err := b.Apply(symbol, models.TickSourceManual, func(float64) float64 { return price })
	if err != nil {
		return 0, err
	}
	return tick.Price, nil
}

// Apply atomically replaces the price of symbol with fn(current), clamped to PriceFloor,
// and records it in the history window.
func (b *PriceBook) Apply(symbol string, source models.TickSource, fn func(current float64) float64) (models.PriceTick, error) {
	b.mu.Lock()
	cur, ok := b.prices[symbol]
	if !ok {
		b.mu.Unlock()
		return models.PriceTick{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	next := fn(cur)
	if math.IsInf(next, 0) {
		b.mu.Unlock()
		return models.PriceTick{}, fmt.Errorf("%w: %v", ErrInvalidPrice, next)
	}
	next = clamp(next)

	b.prices[symbol] = next
	h := append(b.history[symbol], next)
	if len(h) > b.historySize {
		h = append(h[:0], h[len(h)-b.historySize:]...)
	}
	b.history[symbol] = h

	tick := models.PriceTick{
		Symbol:    symbol,
		Price:     next,
		Previous:  cur,
		Source:    source,
		Timestamp: b.now(),
	}
	b.deliverMu.Lock()
	b.mu.Unlock()

	b.notify(tick)
	b.deliverMu.Unlock()
	return tick, nil
}

// Trend compares the last two history samples.
func (b *PriceBook) Trend(symbol string) (models.Trend, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.history[symbol]
	if !ok {
		return models.Trend{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return trendOf(h), nil
}

// History returns a copy of the history window, oldest first.
func (b *PriceBook) History(symbol string) ([]float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.history[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return append([]float64(nil), h...), nil
}

// Prices returns a copy of all current prices.
func (b *PriceBook) Prices() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}
	return out
}

// Snapshot returns every instrument's quote in seed order, taken under one read lock.
func (b *PriceBook) Snapshot() []models.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Quote, 0, len(b.order))
	for _, s := range b.order {
		out = append(out, models.Quote{
			Symbol: s,
			Price:  b.prices[s],
			Trend:  trendOf(b.history[s]),
		})
	}
	return out
}

// Quote returns the price and trend of one symbol.
func (b *PriceBook) Quote(symbol string) (models.Quote, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return models.Quote{Symbol: symbol, Price: p, Trend: trendOf(b.history[symbol])}, nil
}

func (b *PriceBook) notify(t models.PriceTick) {
	b.obsMu.RLock()
	obs := b.observers
	b.obsMu.RUnlock()
	for _, o := range obs {
		o(t)
	}
}

func trendOf(h []float64) models.Trend {
	if len(h) < 2 {
		return models.Trend{Direction: models.DirectionFlat}
	}
	delta := h[len(h)-1] - h[len(h)-2]
	switch {
	case delta > 0:
		return models.Trend{Direction: models.DirectionUp, Delta: delta}
	case delta < 0:
		return models.Trend{Direction: models.DirectionDown, Delta: delta}
	default:
		return models.Trend{Direction: models.DirectionFlat}
	}
}

func clamp(p float64) float64 {
	if math.IsNaN(p) || p < PriceFloor {
		return PriceFloor
	}
	return p
}
