package models

import "time"

// Instrument is a simulated tradable symbol with its current price.
type Instrument struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// DefaultInstruments is the seed table used when no instruments are configured.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Symbol: "MICX", Price: 268.45},
		{Symbol: "APPL", Price: 191.20},
		{Symbol: "APP", Price: 87.64},
		{Symbol: "SNRG", Price: 42.30},
		{Symbol: "CITI", Price: 54.10},
		{Symbol: "MGMT", Price: 149.00},
		{Symbol: "AUTX", Price: 66.25},
		{Symbol: "MDXX", Price: 136.75},
	}
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Emoji is the marker shown next to prices in chat output.
func (d Direction) Emoji() string {
	switch d {
	case DirectionUp:
		return "📈"
	case DirectionDown:
		return "📉"
	default:
		return "➡️"
	}
}

// Trend is derived from the last two recorded prices of an instrument.
type Trend struct {
	Direction Direction `json:"direction"`
	Delta     float64   `json:"delta"`
}

// Quote is a point-in-time view of one instrument.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Trend  Trend   `json:"trend"`
}

type TickSource string

const (
	TickSourceSeed   TickSource = "seed"
	TickSourceWalk   TickSource = "walk"
	TickSourceEvent  TickSource = "event"
	TickSourceManual TickSource = "manual"
)

// PriceTick describes one committed price change.
type PriceTick struct {
	Symbol    string     `json:"symbol"`
	Price     float64    `json:"price"`
	Previous  float64    `json:"previous"`
	Source    TickSource `json:"source"`
	Timestamp time.Time  `json:"ts"`
}
