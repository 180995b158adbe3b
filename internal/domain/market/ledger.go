package market

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"MarketSim/internal/domain/models"
)

// EventLedger stores operator-submitted shock events in submission order.
type EventLedger struct {
	mu     sync.Mutex
	events []models.CustomEvent
	book   *PriceBook
	now    func() time.Time
}

func NewEventLedger(book *PriceBook) *EventLedger {
	return &EventLedger{book: book, now: time.Now}
}

// Add appends an event and returns its zero-based position.
func (l *EventLedger) Add(symbol string, change float64, narrative string) (int, error) {
	if !l.book.Has(symbol) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return 0, fmt.Errorf("%w: change must be a finite number", ErrInvalidEvent)
	}
	if narrative == "" {
		return 0, fmt.Errorf("%w: narrative is empty", ErrInvalidEvent)
	}

	ev := models.CustomEvent{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Change:    change,
		Narrative: narrative,
		CreatedAt: l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return len(l.events) - 1, nil
}

// Clear drops every stored event.
func (l *EventLedger) Clear() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

func (l *EventLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// List returns a copy of the stored events.
func (l *EventLedger) List() []models.CustomEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.CustomEvent(nil), l.events...)
}

// Trigger applies the event at position as a proportional shock:
// new = max(1, price + price*change). The event stays in the ledger.
func (l *EventLedger) Trigger(position int) (models.TriggeredEvent, error) {
	l.mu.Lock()
	if position < 0 || position >= len(l.events) {
		l.mu.Unlock()
		return models.TriggeredEvent{}, fmt.Errorf("%w: position %d", ErrEventNotFound, position)
	}
	ev := l.events[position]
	l.mu.Unlock()

	tick, err := l.book.Apply(ev.Symbol, models.TickSourceEvent, func(p float64) float64 {
		return p + p*ev.Change
	})
	if err != nil {
		return models.TriggeredEvent{}, err
	}
	return models.TriggeredEvent{
		Event:     ev,
		Position:  position,
		Previous:  tick.Previous,
		Price:     tick.Price,
		Timestamp: tick.Timestamp,
	}, nil
}
