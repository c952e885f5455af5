package calculator

import (
	"github.com/moznion/go-optional"

	"GridSentinel/internal/model"
)

// Compute derives the moving average and RSI columns for a series.
// Both columns stay undefined until the longer of the two periods has warmed up.
func Compute(series model.PriceSeries, maPeriod, rsiPeriod int) model.IndicatorSet {
	closes := series.Closes()
	return Align(SMASeries(closes, maPeriod), RSISeries(closes, rsiPeriod), max(maPeriod, rsiPeriod))
}

// Align pairs precomputed columns into an IndicatorSet, masking every position
// before warmup-1 in both. The inputs are not modified.
func Align(ma, rsi []optional.Option[float64], warmup int) model.IndicatorSet {
	return model.IndicatorSet{
		MovingAverage: mask(ma, warmup),
		RSI:           mask(rsi, warmup),
	}
}

func mask(col []optional.Option[float64], warmup int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(col))
	copy(out, col)
	for i := 0; i < len(out) && i < warmup-1; i++ {
		out[i] = optional.None[float64]()
	}
	return out
}
