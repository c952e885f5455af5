package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

// CreateOrderService is the subset of binance.CreateOrderService used for market orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// OrderClient abstracts the Binance client for testing.
type OrderClient interface {
	NewCreateOrderService() CreateOrderService
}

type realOrderClient struct {
	client *binance.Client
}

func (r *realOrderClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)
	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)
	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)
	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)
	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

// BinanceExecutor places spot market orders on Binance.
type BinanceExecutor struct {
	client OrderClient
	log    *zap.Logger
}

// BinanceConfig holds the credentials and endpoint for order placement.
type BinanceConfig struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Testnet   bool
}

// NewBinanceExecutor creates an executor backed by an authenticated Binance client.
// The endpoint is chosen per client so other Binance clients in the process
// are unaffected.
func NewBinanceExecutor(cfg BinanceConfig, log *zap.Logger) *BinanceExecutor {
	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.Testnet:
		client.BaseURL = binance.BaseAPITestnetURL
	}
	return NewBinanceExecutorWithClient(&realOrderClient{client: client}, log)
}

// NewBinanceExecutorWithClient creates an executor with a custom order client.
func NewBinanceExecutorWithClient(client OrderClient, log *zap.Logger) *BinanceExecutor {
	return &BinanceExecutor{client: client, log: log.Named("executor")}
}

func (e *BinanceExecutor) Name() string { return "binance" }

func (e *BinanceExecutor) PlaceMarketOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) (*model.OrderResult, error) {
	var binanceSide binance.SideType
	switch side {
	case model.SideBuy:
		binanceSide = binance.SideTypeBuy
	case model.SideSell:
		binanceSide = binance.SideTypeSell
	default:
		return nil, fmt.Errorf("%w: unsupported side %q", ErrOrderRejected, side)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity %s must be positive", ErrOrderRejected, quantity)
	}

	resp, err := e.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binanceSide).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s %s: code %d: %s", ErrOrderRejected, side, symbol, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrExchange, side, symbol, err)
	}

	result := &model.OrderResult{
		OrderID:  strconv.FormatInt(resp.OrderID, 10),
		Symbol:   resp.Symbol,
		Side:     side,
		Quantity: quantity,
		Price:    averageFillPrice(resp),
		Status:   string(resp.Status),
		PlacedAt: time.UnixMilli(resp.TransactTime).UTC(),
	}
	if result.Symbol == "" {
		result.Symbol = symbol
	}
	e.log.Info("order placed",
		zap.String("order_id", result.OrderID),
		zap.String("symbol", result.Symbol),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.String()),
		zap.Float64("price", result.Price),
		zap.String("status", result.Status),
	)
	return result, nil
}

// averageFillPrice derives the average execution price, or 0 when nothing was filled.
func averageFillPrice(resp *binance.CreateOrderResponse) float64 {
	quote, err := decimal.NewFromString(resp.CummulativeQuoteQuantity)
	if err != nil {
		return 0
	}
	filled, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil || filled.IsZero() {
		return 0
	}
	return quote.Div(filled).InexactFloat64()
}
