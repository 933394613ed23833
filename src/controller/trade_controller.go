package controller

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/mapper"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

// TradeController runs the full signal pipeline: parse, validate, build,
// execute. One webhook delivery in, one result out.
type TradeController struct {
	validator *Validator
	builder   *Builder
	executor  *Executor
}

func NewTradeController(exchange exchangeGateway, orders orderRepository, config Config) *TradeController {
	return &TradeController{
		validator: NewValidator(exchange, orders),
		builder:   NewBuilder(exchange, config),
		executor:  NewExecutor(exchange, orders),
	}
}

// Process handles one webhook payload. The returned signal is non-nil as
// soon as parsing succeeded, so callers can report on it even when a later
// stage failed.
func (c *TradeController) Process(ctx context.Context, payload *externalmodel.WebhookPayload) (*externalmodel.OrderResult, *model.TradingSignal, error) {

	signal, err := mapper.MapWebhookToSignal(payload)
	if err != nil {
		return nil, nil, err
	}

	logger.WithFields(map[string]interface{}{
		"symbol":   signal.Symbol,
		"action":   signal.Action,
		"side":     signal.Side,
		"strategy": signal.Strategy,
	}).Info("Signal received")

	validation, err := c.validator.Validate(ctx, signal)
	if err != nil {
		return nil, signal, err
	}

	if !validation.IsValid {
		if validation.Skipped {
			logger.WithFields(map[string]interface{}{
				"symbol": signal.Symbol,
				"action": signal.Action,
				"reason": validation.Reason,
			}).Info("Signal skipped")

			return &externalmodel.OrderResult{
				Success: true,
				Skipped: true,
				Message: validation.Reason,
			}, signal, nil
		}
		return nil, signal, &ValidationError{Reason: validation.Reason}
	}

	var result *externalmodel.OrderResult
	switch signal.Action {
	case model.ActionEntry:
		var request *OrderRequest
		request, err = c.builder.Build(ctx, signal)
		if err == nil {
			result, err = c.executor.Entry(ctx, signal, request)
		}
	case model.ActionExit:
		result, err = c.executor.Exit(ctx, signal)
	case model.ActionUpdateStop:
		result, err = c.executor.UpdateStop(ctx, signal)
	default:
		err = &mapper.ParseError{Reason: fmt.Sprintf("unsupported action %q", signal.Action)}
	}

	if err != nil {
		return nil, signal, err
	}
	return result, signal, nil
}
