package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderResult describes an order accepted by an executor.
type OrderResult struct {
	OrderID  string
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	Price    float64 // reference price, 0 when unknown
	Status   string
	DryRun   bool
	PlacedAt time.Time
}

// CycleReport is the outcome of one trading loop iteration.
type CycleReport struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Symbol      string
	Timeframe   string
	Best        EvaluationResult
	Evaluated   int
	Viable      int
	Signal      Signal
	LatestClose float64
	LatestMA    float64
	LatestRSI   float64
	WilderRSI   float64
	Order       *OrderResult
	Err         error
}

// NewCycleReport starts a report for the given market.
func NewCycleReport(symbol, timeframe string, now time.Time) *CycleReport {
	return &CycleReport{
		ID:        uuid.New(),
		StartedAt: now,
		Symbol:    symbol,
		Timeframe: timeframe,
		Signal:    Hold,
	}
}

// Succeeded reports whether the cycle finished without error.
func (r *CycleReport) Succeeded() bool {
	return r.Err == nil
}
