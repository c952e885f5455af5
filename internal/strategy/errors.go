package strategy

import "errors"

var (
	// ErrInsufficientData means the series is shorter than the indicator warmup.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoViableParams means the grid search found no scoreable combination.
	ErrNoViableParams = errors.New("no viable parameters")
	// ErrInvalidParams means a period is non-positive or the thresholds are out of order.
	ErrInvalidParams = errors.New("invalid parameters")
)
