package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/connectors"
	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/model"
	"github.com/Legiang98/hyperliquid-trading/src/risk"
)

// exchangeGateway is the slice of the exchange client the pipeline needs.
type exchangeGateway interface {
	AssetInfo(ctx context.Context, symbol string) (*connectors.AssetMeta, int, error)
	MidPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	OpenOrders(ctx context.Context) ([]connectors.OpenOrder, error)
	Position(ctx context.Context, symbol string) (*connectors.Position, error)
	PlaceOrder(ctx context.Context, order connectors.OrderWire) (string, error)
	CancelOrders(ctx context.Context, asset int, oids []int64) error
	ModifyOrder(ctx context.Context, oid int64, order connectors.OrderWire) error
	UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error
	UserAddress() string
}

// orderRepository is the slice of the persistence layer the pipeline needs.
type orderRepository interface {
	FindOpen(ctx context.Context, symbol, strategy string) (*model.Order, error)
	FindOpenEntry(ctx context.Context, symbol, strategy string) (*model.Order, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateOid(ctx context.Context, id uint, oid string) error
	CloseAll(ctx context.Context, symbol, strategy string, pnl float64) error
}

// Validator checks a parsed signal against the exchange universe and the
// persisted position records before any order is built.
type Validator struct {
	exchange exchangeGateway
	orders   orderRepository
}

func NewValidator(exchange exchangeGateway, orders orderRepository) *Validator {
	return &Validator{exchange: exchange, orders: orders}
}

// Validate runs the check sequence, short-circuiting on the first failure.
// A skipped result marks a duplicate or no-op delivery, absorbed silently
// so at-least-once alert sources do not surface errors.
func (v *Validator) Validate(ctx context.Context, signal *model.TradingSignal) (externalmodel.ValidationResult, error) {

	// 1) Symbol must exist in the exchange's current asset universe.
	_, _, err := v.exchange.AssetInfo(ctx, signal.Symbol)
	if err != nil {
		var exchErr *connectors.ExchangeError
		if errors.As(err, &exchErr) {
			logger.WithFields(map[string]interface{}{
				"symbol": signal.Symbol,
				"reason": exchErr.Reason,
			}).Warn("Signal rejected: unknown symbol")

			return externalmodel.ValidationResult{
				IsValid: false,
				Reason:  fmt.Sprintf("invalid symbol: %s not found on exchange", signal.Symbol),
			}, nil
		}
		return externalmodel.ValidationResult{}, err
	}

	// 2) Entry signals need a stop-loss on the correct side of the price.
	if signal.Action == model.ActionEntry {
		if !signal.HasStopLoss() {
			return externalmodel.ValidationResult{
				IsValid: false,
				Reason:  fmt.Sprintf("missing stop loss for %s entry", signal.Symbol),
			}, nil
		}

		price := decimal.NewFromFloat(signal.Price)
		stop := decimal.NewFromFloat(*signal.StopLoss)
		if !risk.ValidateStopLoss(signal.Side, price, stop) {
			return externalmodel.ValidationResult{
				IsValid: false,
				Reason:  fmt.Sprintf("invalid stop loss %s for %s %s at %s", stop, signal.Symbol, signal.Side, price),
			}, nil
		}
	}

	// 3) Open-position conflict check against the persisted records, plus a
	// best-effort look at live open orders on the exchange.
	if signal.Action == model.ActionEntry || signal.Action == model.ActionExit {
		existing, err := v.orders.FindOpen(ctx, signal.Symbol, signal.Strategy)
		if err != nil {
			return externalmodel.ValidationResult{}, err
		}

		hasPosition := existing != nil
		if !hasPosition && signal.Action == model.ActionEntry {
			hasPosition = v.hasLiveOrders(ctx, signal.Symbol)
		}

		if signal.Action == model.ActionEntry && hasPosition {
			return externalmodel.ValidationResult{
				IsValid: false,
				Skipped: true,
				Reason:  fmt.Sprintf("already have open position for %s", signal.Symbol),
			}, nil
		}

		if signal.Action == model.ActionExit && !hasPosition {
			return externalmodel.ValidationResult{
				IsValid: false,
				Skipped: true,
				Reason:  fmt.Sprintf("no open position found for %s to exit", signal.Symbol),
			}, nil
		}
	}

	return externalmodel.ValidationResult{IsValid: true}, nil
}

// hasLiveOrders reports whether the exchange shows any open order for the
// symbol. Lookup failures are logged and treated as "no orders" so a
// transient info-endpoint hiccup cannot block a valid entry.
func (v *Validator) hasLiveOrders(ctx context.Context, symbol string) bool {
	openOrders, err := v.exchange.OpenOrders(ctx)
	if err != nil {
		logger.WithError(err).WithField("symbol", symbol).
			Warn("Failed to check live open orders, assuming none")
		return false
	}

	for _, order := range openOrders {
		if order.Coin == symbol {
			return true
		}
	}
	return false
}
