package strategy

import (
	"math"
	"time"

	"GridSentinel/internal/model"
)

var scenarioCloses = []float64{100, 102, 101, 105, 107, 103, 99, 98, 100, 104, 106, 108, 110, 109, 111}

func seriesOf(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 10}
	}
	return s
}

// wave builds a noisy oscillating series long enough for the default grid.
func wave(n int) model.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		x := float64(i)
		closes[i] = 100 + 8*math.Sin(x/7) + 3*math.Sin(x/2.3) + 0.02*x
	}
	return seriesOf(closes...)
}

func scale(s model.PriceSeries, k float64) model.PriceSeries {
	out := make(model.PriceSeries, len(s))
	for i, b := range s {
		out[i] = model.OHLCV{Time: b.Time, Open: b.Open * k, High: b.High * k, Low: b.Low * k, Close: b.Close * k, Volume: b.Volume}
	}
	return out
}
