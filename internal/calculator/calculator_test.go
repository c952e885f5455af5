package calculator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/model"
)

var scenarioCloses = []float64{100, 102, 101, 105, 107, 103, 99, 98, 100, 104, 106, 108, 110, 109, 111}

func seriesOf(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return s
}

func allNone(t *testing.T, values []optional.Option[float64]) {
	t.Helper()
	for i, v := range values {
		assert.True(t, v.IsNone(), "position %d should be undefined", i)
	}
}

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sma, 1e-12)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestSMASeries_ConstantSeries(t *testing.T) {
	closes := []float64{100.1, 100.1, 100.1, 100.1, 100.1, 100.1, 100.1}
	ma := SMASeries(closes, 4)
	require.Len(t, ma, len(closes))
	for i, v := range ma {
		if i < 3 {
			assert.True(t, v.IsNone(), "position %d", i)
			continue
		}
		require.True(t, v.IsSome(), "position %d", i)
		assert.InDelta(t, 100.1, v.Unwrap(), 1e-9)
	}
}

func TestSMASeries_Window(t *testing.T) {
	ma := SMASeries([]float64{1, 2, 3, 4, 5}, 2)
	assert.True(t, ma[0].IsNone())
	assert.InDelta(t, 1.5, ma[1].Unwrap(), 1e-12)
	assert.InDelta(t, 2.5, ma[2].Unwrap(), 1e-12)
	assert.InDelta(t, 4.5, ma[4].Unwrap(), 1e-12)
}

func TestSMASeries_NonPositivePeriod(t *testing.T) {
	allNone(t, SMASeries([]float64{1, 2, 3}, 0))
	allNone(t, SMASeries([]float64{1, 2, 3}, -2))
}

func TestRSISeries_KnownValues(t *testing.T) {
	rsi := RSISeries([]float64{1, 2, 1}, 2)
	assert.True(t, rsi[0].IsNone())
	// deltas {0, +1}: no losses
	assert.Equal(t, 100.0, rsi[1].Unwrap())
	// deltas {+1, -1}: balanced
	assert.InDelta(t, 50.0, rsi[2].Unwrap(), 1e-12)
}

func TestRSISeries_MonotonicIncrease(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.5
	}
	rsi := RSISeries(closes, 14)
	for i, v := range rsi {
		if i < 13 {
			assert.True(t, v.IsNone(), "position %d", i)
			continue
		}
		assert.Equal(t, 100.0, v.Unwrap(), "position %d", i)
	}
}

func TestRSISeries_MonotonicDecrease(t *testing.T) {
	closes := []float64{10, 9, 8, 7, 6, 5}
	rsi := RSISeries(closes, 3)
	for i := 3; i < len(closes); i++ {
		assert.InDelta(t, 0.0, rsi[i].Unwrap(), 1e-12)
	}
}

func TestRSISeries_Bounded(t *testing.T) {
	rsi := RSISeries(scenarioCloses, 4)
	for _, v := range rsi {
		if v.IsNone() {
			continue
		}
		assert.GreaterOrEqual(t, v.Unwrap(), 0.0)
		assert.LessOrEqual(t, v.Unwrap(), 100.0)
	}
}

func TestCompute_ShortSeriesUndefined(t *testing.T) {
	series := seriesOf(1, 2, 3, 4)
	for _, periods := range [][2]int{{5, 3}, {6, 3}, {3, 5}, {6, 5}} {
		ind := Compute(series, periods[0], periods[1])
		require.Equal(t, len(series), ind.Len())
		allNone(t, ind.MovingAverage)
		allNone(t, ind.RSI)
	}
}

func TestCompute_JointWarmup(t *testing.T) {
	ind := Compute(seriesOf(scenarioCloses...), 5, 3)
	for i := range scenarioCloses {
		defined := i >= 4
		assert.Equal(t, defined, ind.MovingAverage[i].IsSome(), "ma %d", i)
		assert.Equal(t, defined, ind.RSI[i].IsSome(), "rsi %d", i)
	}
	// past the shared warmup RSI keeps its own 3-delta window
	assert.Equal(t, RSISeries(scenarioCloses, 3)[4].Unwrap(), ind.RSI[4].Unwrap())
}

func TestAlign_DoesNotMutateColumns(t *testing.T) {
	rsi := RSISeries([]float64{1, 2, 3, 4}, 2)
	_ = Align(SMASeries([]float64{1, 2, 3, 4}, 4), rsi, 4)
	assert.True(t, rsi[1].IsSome())
}

func TestCompute_Scenario(t *testing.T) {
	ind := Compute(seriesOf(scenarioCloses...), 3, 3)
	require.Equal(t, len(scenarioCloses), ind.Len())
	for i := range scenarioCloses {
		if i < 2 {
			assert.True(t, ind.MovingAverage[i].IsNone(), "ma %d", i)
			assert.True(t, ind.RSI[i].IsNone(), "rsi %d", i)
			continue
		}
		assert.True(t, ind.MovingAverage[i].IsSome(), "ma %d", i)
		assert.True(t, ind.RSI[i].IsSome(), "rsi %d", i)
	}
	assert.InDelta(t, (100.0+102+101)/3, ind.MovingAverage[2].Unwrap(), 1e-9)
	// deltas {0, +2, -1}: gain 2/3, loss 1/3
	assert.InDelta(t, 100-100/(1+2.0), ind.RSI[2].Unwrap(), 1e-9)
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	series := seriesOf(scenarioCloses...)
	before := append(model.PriceSeries(nil), series...)
	_ = Compute(series, 3, 3)
	assert.Equal(t, before, series)
}

func TestCalculateRSI_Wilder(t *testing.T) {
	rsi, err := CalculateRSI(seriesOf(1, 2, 3), 5)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi, "insufficient data falls back to neutral")

	rsi, err = CalculateRSI(seriesOf(1, 2, 3, 4, 5, 6), 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	_, err = CalculateRSI(seriesOf(1, 2, 3), 0)
	assert.Error(t, err)
}
