package controller

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/connectors"
	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/model"
	"github.com/Legiang98/hyperliquid-trading/src/risk"
)

// exitPriceNudge shifts the exit limit price 0.1% through the mid so a
// reduce-only close fills immediately without paying a full market spread.
var exitPriceNudge = struct {
	closeLong  decimal.Decimal
	closeShort decimal.Decimal
}{
	closeLong:  decimal.NewFromFloat(0.999),
	closeShort: decimal.NewFromFloat(1.001),
}

// Executor places the actual exchange orders and keeps the database records
// in lockstep with them. Every exchange call is made exactly once; a failed
// call fails the delivery.
type Executor struct {
	exchange exchangeGateway
	orders   orderRepository
}

func NewExecutor(exchange exchangeGateway, orders orderRepository) *Executor {
	return &Executor{exchange: exchange, orders: orders}
}

// Entry opens a position: a GTC limit order at the signal price, plus a
// reduce-only stop-market trigger on the opposite side. Both legs are
// persisted as open records keyed by symbol and strategy.
func (e *Executor) Entry(ctx context.Context, signal *model.TradingSignal, req *OrderRequest) (*externalmodel.OrderResult, error) {

	entryWire := connectors.OrderWire{
		Asset:      req.AssetID,
		IsBuy:      signal.IsBuy(),
		Price:      req.Price.String(),
		Size:       req.Quantity.String(),
		ReduceOnly: false,
		Type: connectors.OrderType{
			Limit: &connectors.LimitOrderType{Tif: "Gtc"},
		},
	}

	oid, err := e.exchange.PlaceOrder(ctx, entryWire)
	if err != nil {
		return nil, err
	}

	quantity, _ := req.Quantity.Float64()
	price, _ := req.Price.Float64()
	stopLoss, _ := req.StopLoss.Float64()

	record := &model.Order{
		UserAddress: e.exchange.UserAddress(),
		Symbol:      signal.Symbol,
		Strategy:    signal.Strategy,
		Quantity:    quantity,
		OrderType:   model.OrderTypeLimit,
		Action:      string(signal.Action),
		Side:        string(signal.Side),
		Price:       price,
		StopLoss:    &stopLoss,
		Status:      model.OrderStatusOpen,
	}
	if err := e.orders.Create(ctx, record); err != nil {
		return nil, err
	}
	if err := e.orders.UpdateOid(ctx, record.ID, oid); err != nil {
		return nil, err
	}

	if err := e.placeStopLeg(ctx, signal, req); err != nil {
		// The entry order is live and recorded; the position just runs
		// without its protective stop until the operator intervenes.
		logger.WithError(err).WithFields(map[string]interface{}{
			"symbol": signal.Symbol,
			"oid":    oid,
		}).Error("Entry placed but stop-loss leg failed")
		return nil, fmt.Errorf("entry order %s placed but stop-loss leg failed: %w", oid, err)
	}

	logger.WithFields(map[string]interface{}{
		"symbol":   signal.Symbol,
		"side":     signal.Side,
		"oid":      oid,
		"quantity": req.Quantity,
		"price":    req.Price,
	}).Info("Entry order placed")

	return &externalmodel.OrderResult{
		Success:   true,
		OrderID:   oid,
		DBOrderID: record.ID,
		Message:   fmt.Sprintf("entry order placed for %s", signal.Symbol),
	}, nil
}

// placeStopLeg submits the reduce-only stop trigger for a freshly opened
// position and persists it as a second record.
func (e *Executor) placeStopLeg(ctx context.Context, signal *model.TradingSignal, req *OrderRequest) error {

	stopWire := connectors.OrderWire{
		Asset:      req.AssetID,
		IsBuy:      !signal.IsBuy(),
		Price:      req.StopLoss.String(),
		Size:       req.Quantity.String(),
		ReduceOnly: true,
		Type: connectors.OrderType{
			Trigger: &connectors.TriggerOrderType{
				IsMarket:  true,
				TriggerPx: req.StopLoss.String(),
				Tpsl:      "sl",
			},
		},
	}

	stopOid, err := e.exchange.PlaceOrder(ctx, stopWire)
	if err != nil {
		return err
	}

	quantity, _ := req.Quantity.Float64()
	stopLoss, _ := req.StopLoss.Float64()

	stopRecord := &model.Order{
		UserAddress: e.exchange.UserAddress(),
		Symbol:      signal.Symbol,
		Strategy:    signal.Strategy,
		Quantity:    quantity,
		OrderType:   model.OrderTypeStopLoss,
		Action:      string(signal.Action),
		Side:        string(oppositeSide(signal.Side)),
		Price:       stopLoss,
		Status:      model.OrderStatusOpen,
	}
	if err := e.orders.Create(ctx, stopRecord); err != nil {
		return err
	}
	return e.orders.UpdateOid(ctx, stopRecord.ID, stopOid)
}

// Exit flattens the position: a reduce-only GTC limit nudged 0.1% through
// the current mid, sized to the full live exchange position. Remaining
// resting orders for the symbol are cancelled and every open record is
// closed with the realized pnl.
func (e *Executor) Exit(ctx context.Context, signal *model.TradingSignal) (*externalmodel.OrderResult, error) {

	// The entry leg, not the newest record: the stop-loss leg is persisted
	// after it and carries the stop price, which would corrupt the pnl.
	entryRecord, err := e.orders.FindOpenEntry(ctx, signal.Symbol, signal.Strategy)
	if err != nil {
		return nil, err
	}
	if entryRecord == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("no open position found for %s to exit", signal.Symbol)}
	}

	assetMeta, assetID, err := e.exchange.AssetInfo(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	position, err := e.exchange.Position(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	// The records say open but the exchange shows nothing: the stop
	// already fired or the position was closed manually. Clean up the
	// book and the records instead of placing a dead order.
	if position == nil {
		logger.WithField("symbol", signal.Symbol).
			Warn("Exit signal with no live position, cleaning up records")

		if err := e.cancelSymbolOrders(ctx, signal.Symbol, assetID, 0); err != nil {
			return nil, err
		}
		if err := e.orders.CloseAll(ctx, signal.Symbol, signal.Strategy, 0); err != nil {
			return nil, err
		}
		return &externalmodel.OrderResult{
			Success: true,
			Message: fmt.Sprintf("no live position for %s, records closed", signal.Symbol),
		}, nil
	}

	midPrice, err := e.exchange.MidPrice(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	nudge := exitPriceNudge.closeLong
	if !position.IsLong {
		nudge = exitPriceNudge.closeShort
	}
	exitPrice := risk.NormalizePrice(midPrice.Mul(nudge), assetMeta.SzDecimals)
	exitSize := risk.NormalizeOrderSize(position.Size, assetMeta.SzDecimals)

	exitWire := connectors.OrderWire{
		Asset:      assetID,
		IsBuy:      !position.IsLong,
		Price:      exitPrice.String(),
		Size:       exitSize.String(),
		ReduceOnly: true,
		Type: connectors.OrderType{
			Limit: &connectors.LimitOrderType{Tif: "Gtc"},
		},
	}

	oid, err := e.exchange.PlaceOrder(ctx, exitWire)
	if err != nil {
		return nil, err
	}

	// The fresh exit order may still be resting; sweep only the others.
	exitOid, _ := strconv.ParseInt(oid, 10, 64)
	if err := e.cancelSymbolOrders(ctx, signal.Symbol, assetID, exitOid); err != nil {
		return nil, err
	}

	pnl := realizedPnl(position.IsLong, decimal.NewFromFloat(entryRecord.Price), exitPrice, exitSize)
	if err := e.orders.CloseAll(ctx, signal.Symbol, signal.Strategy, pnl); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"symbol": signal.Symbol,
		"oid":    oid,
		"size":   exitSize,
		"price":  exitPrice,
		"pnl":    pnl,
	}).Info("Exit order placed")

	return &externalmodel.OrderResult{
		Success:   true,
		OrderID:   oid,
		DBOrderID: entryRecord.ID,
		Message:   fmt.Sprintf("exit order placed for %s, pnl %.4f", signal.Symbol, pnl),
	}, nil
}

// UpdateStop moves the protective stop of an open position to a new trigger
// price. The stop is located on the exchange book as the reduce-only order
// on the closing side of the position.
func (e *Executor) UpdateStop(ctx context.Context, signal *model.TradingSignal) (*externalmodel.OrderResult, error) {

	newStop := signal.Price
	if signal.HasStopLoss() {
		newStop = *signal.StopLoss
	}

	assetMeta, assetID, err := e.exchange.AssetInfo(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}

	position, err := e.exchange.Position(ctx, signal.Symbol)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("no open position for %s to update stop", signal.Symbol)}
	}

	// A long's stop sits on the ask side, a short's on the bid side.
	closingSide := "A"
	if !position.IsLong {
		closingSide = "B"
	}

	stopOrder, err := e.findStopOrder(ctx, signal.Symbol, closingSide)
	if err != nil {
		return nil, err
	}
	if stopOrder == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("no stop-loss order found for %s", signal.Symbol)}
	}

	triggerPrice := risk.NormalizePrice(decimal.NewFromFloat(newStop), assetMeta.SzDecimals)

	modified := connectors.OrderWire{
		Asset:      assetID,
		IsBuy:      closingSide == "B",
		Price:      triggerPrice.String(),
		Size:       stopOrder.Sz,
		ReduceOnly: true,
		Type: connectors.OrderType{
			Trigger: &connectors.TriggerOrderType{
				IsMarket:  true,
				TriggerPx: triggerPrice.String(),
				Tpsl:      "sl",
			},
		},
	}

	if err := e.exchange.ModifyOrder(ctx, stopOrder.Oid, modified); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"symbol":  signal.Symbol,
		"oid":     stopOrder.Oid,
		"trigger": triggerPrice,
	}).Info("Stop-loss order updated")

	return &externalmodel.OrderResult{
		Success: true,
		OrderID: strconv.FormatInt(stopOrder.Oid, 10),
		Message: fmt.Sprintf("stop loss for %s moved to %s", signal.Symbol, triggerPrice),
	}, nil
}

// findStopOrder returns the symbol's reduce-only order on the given side,
// or nil when no such order is resting.
func (e *Executor) findStopOrder(ctx context.Context, symbol, side string) (*connectors.OpenOrder, error) {
	openOrders, err := e.exchange.OpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	for i := range openOrders {
		order := &openOrders[i]
		if order.Coin == symbol && order.ReduceOnly && order.Side == side {
			return order, nil
		}
	}
	return nil, nil
}

// cancelSymbolOrders cancels every resting order for one symbol except
// keepOid (0 keeps nothing).
func (e *Executor) cancelSymbolOrders(ctx context.Context, symbol string, assetID int, keepOid int64) error {
	openOrders, err := e.exchange.OpenOrders(ctx)
	if err != nil {
		return err
	}

	var oids []int64
	for _, order := range openOrders {
		if order.Coin == symbol && order.Oid != keepOid {
			oids = append(oids, order.Oid)
		}
	}
	if len(oids) == 0 {
		return nil
	}

	logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(oids),
	}).Info("Cancelling stale orders")

	return e.exchange.CancelOrders(ctx, assetID, oids)
}

func realizedPnl(isLong bool, entry, exit, size decimal.Decimal) float64 {
	diff := exit.Sub(entry)
	if !isLong {
		diff = diff.Neg()
	}
	pnl, _ := diff.Mul(size).Float64()
	return pnl
}

func oppositeSide(side model.Side) model.Side {
	if side == model.SideBuy {
		return model.SideSell
	}
	return model.SideBuy
}
