package models

import "time"

// CustomEvent is an operator-defined proportional price shock.
type CustomEvent struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Change    float64   `json:"change"`
	Narrative string    `json:"narrative"`
	CreatedAt time.Time `json:"created_at"`
}

// TriggeredEvent records the outcome of applying a CustomEvent.
type TriggeredEvent struct {
	Event     CustomEvent `json:"event"`
	Position  int         `json:"position"`
	Previous  float64     `json:"previous"`
	Price     float64     `json:"price"`
	Timestamp time.Time   `json:"ts"`
}
