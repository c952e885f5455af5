package executor

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"GridSentinel/internal/model"
)

var (
	// ErrOrderRejected is returned when the exchange refuses an order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrExchange is returned when the exchange cannot be reached or answers unexpectedly.
	ErrExchange = errors.New("exchange error")
)

// Executor places orders for a trading signal.
type Executor interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) (*model.OrderResult, error)
	Name() string
}

// Marker is implemented by executors that fill at an externally supplied price.
type Marker interface {
	Mark(symbol string, price float64)
}
