package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

// PaperExecutor simulates fills without touching the exchange.
type PaperExecutor struct {
	log *zap.Logger

	mu     sync.Mutex
	marks  map[string]float64
	orders []model.OrderResult
}

// NewPaperExecutor creates a dry-run executor.
func NewPaperExecutor(log *zap.Logger) *PaperExecutor {
	return &PaperExecutor{log: log.Named("paper"), marks: make(map[string]float64)}
}

func (p *PaperExecutor) Name() string { return "paper" }

// Mark sets the reference price used for the next fills of symbol.
func (p *PaperExecutor) Mark(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks[symbol] = price
}

func (p *PaperExecutor) PlaceMarketOrder(_ context.Context, symbol string, side model.Side, quantity decimal.Decimal) (*model.OrderResult, error) {
	if side != model.SideBuy && side != model.SideSell {
		return nil, fmt.Errorf("%w: unsupported side %q", ErrOrderRejected, side)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity %s must be positive", ErrOrderRejected, quantity)
	}

	p.mu.Lock()
	result := model.OrderResult{
		OrderID:  "paper-" + uuid.NewString(),
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    p.marks[symbol],
		Status:   "FILLED",
		DryRun:   true,
		PlacedAt: time.Now().UTC(),
	}
	p.orders = append(p.orders, result)
	p.mu.Unlock()

	p.log.Info("paper order filled",
		zap.String("order_id", result.OrderID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.String()),
		zap.Float64("price", result.Price),
	)
	return &result, nil
}

// Orders returns a copy of every simulated fill.
func (p *PaperExecutor) Orders() []model.OrderResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderResult, len(p.orders))
	copy(out, p.orders)
	return out
}
