package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  model.PriceSeries // returned as-is when set, trimmed to limit
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, timeframe string, limit int) (model.PriceSeries, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		bars := m.Bars
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
		return bars, nil
	}
	step, err := TimeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}
	return generateMockBars(m.Price, limit, step), nil
}

// generateMockBars produces an oscillating series ending at the current hour.
func generateMockBars(basePrice float64, count int, step time.Duration) model.PriceSeries {
	end := time.Now().UTC().Truncate(step)
	bars := make(model.PriceSeries, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/5) + float64(i-count/2)*0.0002)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches price series for one market and enforces their ordering.
type Collector struct {
	Fetcher      Fetcher
	Symbol       string
	Timeframe    string
	HistoryLimit int
	LatestLimit  int
	log          *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, timeframe string, historyLimit, latestLimit int, log *zap.Logger) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Symbol:       symbol,
		Timeframe:    timeframe,
		HistoryLimit: historyLimit,
		LatestLimit:  latestLimit,
		log:          log.Named("collector"),
	}
}

// History returns the long series used for parameter search.
func (c *Collector) History(ctx context.Context) (model.PriceSeries, error) {
	return c.collect(ctx, c.HistoryLimit)
}

// Latest returns the short recent series used for the live signal.
func (c *Collector) Latest(ctx context.Context) (model.PriceSeries, error) {
	return c.collect(ctx, c.LatestLimit)
}

func (c *Collector) collect(ctx context.Context, limit int) (model.PriceSeries, error) {
	start := time.Now()
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no bars for %s", ErrDataUnavailable, c.Fetcher.Name(), c.Symbol)
	}

	series := make(model.PriceSeries, len(bars))
	copy(series, bars)
	sort.SliceStable(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	c.log.Debug("fetched bars",
		zap.String("source", c.Fetcher.Name()),
		zap.String("symbol", c.Symbol),
		zap.String("timeframe", c.Timeframe),
		zap.Int("bars", len(series)),
		zap.Duration("took", time.Since(start)),
	)
	return series, nil
}
