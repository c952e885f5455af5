package strategy

import (
	"fmt"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// GenerateSignals maps indicator values to one signal per bar.
//
// Buy fires when RSI is below oversold while the close is above the moving
// average. Sell fires when RSI is above overbought while the close is below
// the moving average, and only if Buy did not fire. Bars with an undefined
// indicator hold.
func GenerateSignals(ind model.IndicatorSet, closes []float64, oversold, overbought float64) []model.Signal {
	signals := make([]model.Signal, len(closes))
	for i, c := range closes {
		if i >= len(ind.MovingAverage) || i >= len(ind.RSI) {
			break
		}
		if ind.MovingAverage[i].IsNone() || ind.RSI[i].IsNone() {
			continue
		}
		ma, rsi := ind.MovingAverage[i].Unwrap(), ind.RSI[i].Unwrap()
		switch {
		case rsi < oversold && c > ma:
			signals[i] = model.Buy
		case rsi > overbought && c < ma:
			signals[i] = model.Sell
		}
	}
	return signals
}

// Decision is the signal for the most recent bar along with its inputs.
type Decision struct {
	Signal model.Signal
	Close  float64
	MA     float64
	RSI    float64
}

// LatestSignal applies params to the series and returns the decision for its last bar.
func LatestSignal(series model.PriceSeries, params model.StrategyParams) (Decision, error) {
	if err := params.Check(); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if len(series) < params.Warmup() {
		return Decision{}, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), params.Warmup())
	}
	closes := series.Closes()
	ind := calculator.Compute(series, params.MAPeriod, params.RSIPeriod)
	signals := GenerateSignals(ind, closes, params.RSIOversold, params.RSIOverbought)

	last := len(closes) - 1
	return Decision{
		Signal: signals[last],
		Close:  closes[last],
		MA:     ind.MovingAverage[last].TakeOr(0),
		RSI:    ind.RSI[last].TakeOr(0),
	}, nil
}
