package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSim/internal/domain/models"
)

func TestEventLedger_AddValidation(t *testing.T) {
	l := NewEventLedger(newTestBook())

	_, err := l.Add("NOPE", 0.1, "story")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = l.Add("APP", math.NaN(), "story")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = l.Add("APP", math.Inf(-1), "story")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = l.Add("APP", 0.1, "")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	assert.Zero(t, l.Len())
}

func TestEventLedger_AddKeepsBlankNarrative(t *testing.T) {
	l := NewEventLedger(newTestBook())

	pos, err := l.Add("APP", 0.1, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.Equal(t, "   ", l.List()[0].Narrative)
}

func TestEventLedger_AddReturnsPosition(t *testing.T) {
	l := NewEventLedger(newTestBook())

	pos, err := l.Add("APP", -0.5, "Factory fire")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	pos, err = l.Add("MICX", 0.2, "Earnings beat")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	events := l.List()
	require.Len(t, events, 2)
	assert.Equal(t, "Factory fire", events[0].Narrative)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestEventLedger_TriggerHalvesPrice(t *testing.T) {
	b := newTestBook()
	l := NewEventLedger(b)
	pos, _ := l.Add("APP", -0.5, "Factory fire")

	res, err := l.Trigger(pos)
	require.NoError(t, err)

	assert.Equal(t, 100.0, res.Previous)
	assert.Equal(t, 50.0, res.Price)
	p, _ := b.Get("APP")
	assert.Equal(t, 50.0, p)
	h, _ := b.History("APP")
	assert.Equal(t, []float64{100, 50}, h)
	assert.Equal(t, 1, l.Len(), "triggering keeps the event")
}

func TestEventLedger_TriggerClampsAtFloor(t *testing.T) {
	b := newTestBook()
	l := NewEventLedger(b)
	pos, _ := l.Add("APP", -1.5, "Collapse")

	res, err := l.Trigger(pos)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Price)
}

func TestEventLedger_TriggerOutOfRange(t *testing.T) {
	l := NewEventLedger(newTestBook())
	_, _ = l.Add("APP", 0.1, "x")

	for _, pos := range []int{-1, 1, 99} {
		_, err := l.Trigger(pos)
		assert.ErrorIs(t, err, ErrEventNotFound)
	}
}

func TestEventLedger_Clear(t *testing.T) {
	b := newTestBook()
	l := NewEventLedger(b)
	_, _ = l.Add("APP", 0.1, "x")
	_, _ = l.Add("APP", 0.2, "y")

	l.Clear()

	assert.Zero(t, l.Len())
	_, err := l.Trigger(0)
	assert.ErrorIs(t, err, ErrEventNotFound)
	p, _ := b.Get("APP")
	assert.Equal(t, 100.0, p)
}

func TestEventLedger_TriggerEmitsEventTick(t *testing.T) {
	b := newTestBook()
	var sources []models.TickSource
	b.Subscribe(func(t models.PriceTick) { sources = append(sources, t.Source) })
	l := NewEventLedger(b)
	pos, _ := l.Add("APP", 0.25, "Rally")

	_, err := l.Trigger(pos)
	require.NoError(t, err)
	assert.Equal(t, []models.TickSource{models.TickSourceEvent}, sources)
}
