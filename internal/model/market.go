package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is an ascending sequence of bars without duplicate timestamps.
// A fetched series is never modified afterwards.
type PriceSeries []OHLCV

// Closes returns the close prices as a new slice.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (OHLCV, bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

// Validate checks the ordering invariant.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		switch {
		case s[i].Time.Equal(s[i-1].Time):
			return fmt.Errorf("duplicate bar at %s", s[i].Time.Format(time.RFC3339))
		case s[i].Time.Before(s[i-1].Time):
			return fmt.Errorf("bar %d at %s is out of order", i, s[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}
