package model

import "github.com/moznion/go-optional"

// Signal is the discrete trading decision for one bar.
type Signal int8

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Side is the direction of an order sent to the exchange.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SideForSignal maps a signal to an order side. Hold has no side.
func SideForSignal(s Signal) (Side, bool) {
	switch s {
	case Buy:
		return SideBuy, true
	case Sell:
		return SideSell, true
	default:
		return "", false
	}
}

// IndicatorSet holds per-bar indicator values aligned with a PriceSeries.
// Values are None while the lookback window is still warming up.
type IndicatorSet struct {
	MovingAverage []optional.Option[float64]
	RSI           []optional.Option[float64]
}

// Len returns the number of bars covered by the set.
func (s IndicatorSet) Len() int {
	return len(s.MovingAverage)
}

// EvaluationResult is the backtest score of one parameter combination.
type EvaluationResult struct {
	Params           StrategyParams
	CumulativeReturn float64
}
