package mapper

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

// ParseError marks a malformed or unrecognized payload. The caller treats
// it as a permanent rejection (HTTP 400), never retried.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// quote-currency suffixes stripped from inbound symbols, longest first
var quoteSuffixes = []string{"USDT", "USD"}

// NormalizeSymbol strips the quote-currency suffix from an alert symbol
// so it matches the exchange's coin naming, e.g. BTCUSDT -> BTC.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range quoteSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

// MapWebhookToSignal converts a raw webhook payload into a canonical
// trading signal. Action and type strings are matched case-insensitively.
func MapWebhookToSignal(payload *externalmodel.WebhookPayload) (*model.TradingSignal, error) {
	if payload == nil {
		return nil, &ParseError{Reason: "empty payload"}
	}

	if payload.Symbol == "" {
		return nil, &ParseError{Reason: "missing symbol"}
	}

	var action model.Action
	switch strings.ToUpper(strings.TrimSpace(payload.Action)) {
	case "ENTRY":
		action = model.ActionEntry
	case "EXIT":
		action = model.ActionExit
	case "UPDATE_STOP":
		action = model.ActionUpdateStop
	case "":
		return nil, &ParseError{Reason: "missing action"}
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unknown action: %s", payload.Action)}
	}

	var side model.Side
	switch strings.ToUpper(strings.TrimSpace(payload.Type)) {
	case "BUY":
		side = model.SideBuy
	case "SELL":
		side = model.SideSell
	case "":
		return nil, &ParseError{Reason: "missing type"}
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unknown type: %s", payload.Type)}
	}

	if action == model.ActionEntry && payload.Price <= 0 {
		return nil, &ParseError{Reason: "entry signal requires a positive price"}
	}

	signal := &model.TradingSignal{
		Symbol:   NormalizeSymbol(payload.Symbol),
		Action:   action,
		Side:     side,
		Price:    payload.Price,
		StopLoss: payload.StopLoss,
		Strategy: payload.Strategy,
	}

	logger.WithFields(map[string]interface{}{
		"mapper":   "MapWebhookToSignal",
		"symbol":   signal.Symbol,
		"action":   signal.Action,
		"side":     signal.Side,
		"strategy": signal.Strategy,
	}).Debug("Webhook payload mapped to trading signal")

	return signal, nil
}
