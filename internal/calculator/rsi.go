package calculator

import (
	"errors"

	"github.com/moznion/go-optional"

	"GridSentinel/internal/model"
)

// rsiCeiling is reported when a window holds no losses.
const rsiCeiling = 100.0

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 bars. Returns 50.0 if data is insufficient.
func CalculateRSI(bars model.PriceSeries, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 50.0, nil
	}

	closes := bars.Closes()

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	return rsiFromAverages(avgGain, avgLoss), nil
}

// RSISeries computes a simple-average RSI at every position.
//
// The delta at position i is closes[i]-closes[i-1]; the first bar has no
// predecessor and contributes a zero delta. Position i averages the gains and
// losses of deltas[i-period+1..i], so the first defined value sits at
// period-1, the same warmup as SMASeries.
func RSISeries(closes []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(closes))
	if period <= 0 {
		return fillNone(out)
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		gains[i], losses[i] = split(closes[i] - closes[i-1])
	}
	for i := range closes {
		if i < period-1 {
			out[i] = optional.None[float64]()
			continue
		}
		var sumGain, sumLoss float64
		for j := i - period + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		out[i] = optional.Some(rsiFromAverages(sumGain/float64(period), sumLoss/float64(period)))
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return rsiCeiling
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
