package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"GridSentinel/internal/model"
)

// ErrDataUnavailable is returned when market data cannot be fetched or is unusable.
var ErrDataUnavailable = errors.New("market data unavailable")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to limit of the most recent bars for symbol at the given timeframe.
	FetchBars(ctx context.Context, symbol, timeframe string, limit int) (model.PriceSeries, error)
	Name() string
}

// newHTTPClient returns a client that routes through proxyURL when set.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// TimeframeDuration converts an exchange interval such as "15m", "4h", "1d", "1w" or "1M"
// to its nominal duration. Months count as 30 days.
func TimeframeDuration(timeframe string) (time.Duration, error) {
	if len(timeframe) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	n, err := strconv.Atoi(timeframe[:len(timeframe)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	var unit time.Duration
	switch timeframe[len(timeframe)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	case 'M':
		unit = 30 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	return time.Duration(n) * unit, nil
}
