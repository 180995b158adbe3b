package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
)

type fakeMetrics struct {
	mu         sync.Mutex
	commands   map[string]int
	errors     map[string]int
	ticks      map[string]int
	indexes    map[string]float64
	broadcasts []bool
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		commands: map[string]int{},
		errors:   map[string]int{},
		ticks:    map[string]int{},
		indexes:  map[string]float64{},
	}
}

func (m *fakeMetrics) RecordPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordIndex(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[name] = v
}

func (m *fakeMetrics) RecordTick(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks[source]++
}

func (m *fakeMetrics) RecordCommand(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[name]++
}

func (m *fakeMetrics) RecordBroadcast(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts = append(m.broadcasts, ok)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type sentMessage struct {
	channel string
	text    string
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (b *fakeBroadcaster) Send(_ context.Context, channelID, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{channel: channelID, text: text})
	if b.fail {
		return errors.New("gateway unavailable")
	}
	return nil
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func (b *fakeBroadcaster) last() sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

// fakeClock reports a fixed time and records every requested wait. Waits end
// only when the test sends on fire.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
	fire  chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, fire: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	return c.fire
}

func (c *fakeClock) waitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waits)
}

// friday is 2025-03-07, a Friday, in UTC.
var friday = time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC)

func newBook() *market.PriceBook {
	return market.NewPriceBook(models.DefaultInstruments())
}
