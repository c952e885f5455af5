package calculator

import (
	"errors"

	"github.com/moznion/go-optional"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries computes the trailing simple moving average at every position.
// Position i averages closes[i-period+1..i]; earlier positions are None.
func SMASeries(closes []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(closes))
	if period <= 0 {
		return fillNone(out)
	}
	for i := range closes {
		sma, err := CalculateSMA(closes[:i+1], period)
		if err != nil {
			out[i] = optional.None[float64]()
			continue
		}
		out[i] = optional.Some(sma)
	}
	return out
}

func fillNone(out []optional.Option[float64]) []optional.Option[float64] {
	for i := range out {
		out[i] = optional.None[float64]()
	}
	return out
}
