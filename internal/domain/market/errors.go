package market

import "errors"

var (
	ErrUnknownSymbol    = errors.New("market: unknown symbol")
	ErrInvalidPrice     = errors.New("market: invalid price")
	ErrInvalidEvent     = errors.New("market: invalid event")
	ErrEventNotFound    = errors.New("market: event not found")
	ErrUnauthorized     = errors.New("market: caller is not the operator")
	ErrBroadcastFailure = errors.New("market: broadcast failed")
)
