package strategy

import (
	"fmt"
	"math"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Evaluate replays the signal produced by params over the series and returns
// the cumulative return.
//
// The signal of bar i-1 is applied to the return of bar i, so a position is
// entered at the prior signal and realises the next period's move. Returns
// are summed without compounding, fees or slippage.
func Evaluate(series model.PriceSeries, params model.StrategyParams) (float64, error) {
	if err := params.Check(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	ind := calculator.Compute(series, params.MAPeriod, params.RSIPeriod)
	total, ok := cumulativeReturn(ind, series.Closes(), params)
	if !ok {
		return 0, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), params.Warmup()+1)
	}
	return total, nil
}

// cumulativeReturn reports false when no bar could be scored.
func cumulativeReturn(ind model.IndicatorSet, closes []float64, params model.StrategyParams) (float64, bool) {
	signals := GenerateSignals(ind, closes, params.RSIOversold, params.RSIOverbought)

	var total float64
	scored := 0
	for i := 1; i < len(closes); i++ {
		if ind.MovingAverage[i-1].IsNone() || ind.RSI[i-1].IsNone() {
			continue
		}
		r := (closes[i] - closes[i-1]) / closes[i-1]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		scored++
		total += r * float64(signals[i-1])
	}
	return total, scored > 0
}
