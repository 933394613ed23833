package controller

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/model"
	"github.com/Legiang98/hyperliquid-trading/src/risk"
)

// OrderRequest is a fully sized and normalized order, ready for the
// exchange wire. All prices sit on the exchange tick grid and the
// quantity is floored to the asset's size precision.
type OrderRequest struct {
	Symbol     string
	Side       model.Side
	AssetID    int
	SzDecimals int
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	StopLoss   decimal.Decimal
	Leverage   int
}

// Builder turns a validated entry signal into an OrderRequest: it fetches
// live market data, settles the leverage configuration, sizes the position
// for a fixed USD risk and normalizes every number to exchange precision.
type Builder struct {
	exchange exchangeGateway
	config   Config
}

func NewBuilder(exchange exchangeGateway, config Config) *Builder {
	return &Builder{exchange: exchange, config: config}
}

// Build assembles the order for an entry signal. Any market-data failure is
// returned as-is and fails the whole request, there is no retry.
func (b *Builder) Build(ctx context.Context, signal *model.TradingSignal) (*OrderRequest, error) {

	// The live mid drives sizing and the limit price. The alert price is
	// only the sanity reference the stop was validated against.
	midPrice, err := b.exchange.MidPrice(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	assetMeta, assetID, err := b.exchange.AssetInfo(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	leverage, err := b.resolveLeverage(ctx, signal.Symbol, assetID, assetMeta.MaxLeverage)
	if err != nil {
		return nil, err
	}

	price := risk.NormalizePrice(midPrice, assetMeta.SzDecimals)
	stopLoss := risk.NormalizePrice(decimal.NewFromFloat(*signal.StopLoss), assetMeta.SzDecimals)

	rawSize, err := risk.ComputeOrderSize(decimal.NewFromFloat(b.config.FixedRiskUSD), price, stopLoss)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	quantity := risk.NormalizeOrderSize(rawSize, assetMeta.SzDecimals)
	if quantity.IsZero() {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("order size %s truncates to zero at %d size decimals", rawSize, assetMeta.SzDecimals),
		}
	}

	liquidation := risk.LiquidationPrice(signal.Side, price, quantity, leverage)
	if !risk.ValidateStopAgainstLiquidation(signal.Side, stopLoss, liquidation) {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("stop loss %s is beyond liquidation price %s at %dx leverage", stopLoss, liquidation, leverage),
		}
	}

	logger.WithFields(map[string]interface{}{
		"symbol":      signal.Symbol,
		"side":        signal.Side,
		"price":       price,
		"alert_price": signal.Price,
		"quantity":    quantity,
		"stop":        stopLoss,
		"leverage":    leverage,
	}).Info("Order built")

	return &OrderRequest{
		Symbol:     signal.Symbol,
		Side:       signal.Side,
		AssetID:    assetID,
		SzDecimals: assetMeta.SzDecimals,
		Quantity:   quantity,
		Price:      price,
		StopLoss:   stopLoss,
		Leverage:   leverage,
	}, nil
}

// resolveLeverage returns the leverage the order will run under and makes
// sure the asset is in isolated mode. Cross margin lets one position drain
// the whole account, so any cross configuration is switched to isolated
// before the order goes out.
func (b *Builder) resolveLeverage(ctx context.Context, symbol string, assetID, maxLeverage int) (int, error) {
	leverage := b.config.DefaultLeverage
	if maxLeverage > 0 && leverage > maxLeverage {
		leverage = maxLeverage
	}

	position, err := b.exchange.Position(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if position != nil && position.Leverage > 0 {
		leverage = position.Leverage
	}

	if position == nil || position.LeverageMode != "isolated" {
		logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"leverage": leverage,
		}).Warn("Switching margin mode to isolated")

		if err := b.exchange.UpdateLeverage(ctx, assetID, false, leverage); err != nil {
			return 0, err
		}
	}

	return leverage, nil
}
