package mapper

import (
	"errors"
	"testing"

	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT":  "BTC",
		"ETHUSD":   "ETH",
		"btcusdt":  "BTC",
		" SOLUSDT": "SOL",
		"BTC":      "BTC",
		"USDT":     "USDT",
	}

	for input, expected := range cases {
		if got := NormalizeSymbol(input); got != expected {
			t.Fatalf("NormalizeSymbol(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestMapWebhookToSignal_Entry(t *testing.T) {
	stop := 94000.0
	payload := &externalmodel.WebhookPayload{
		Symbol:   "BTCUSDT",
		Action:   "ENTRY",
		Type:     "BUY",
		Price:    95000,
		StopLoss: &stop,
		Strategy: "baseline_v1.2",
	}

	signal, err := MapWebhookToSignal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signal.Symbol != "BTC" {
		t.Fatalf("expected normalized symbol BTC, got %q", signal.Symbol)
	}
	if signal.Action != model.ActionEntry || signal.Side != model.SideBuy {
		t.Fatalf("unexpected action/side: %s/%s", signal.Action, signal.Side)
	}
	if !signal.HasStopLoss() || *signal.StopLoss != stop {
		t.Fatalf("expected stop loss %v carried over, got %+v", stop, signal.StopLoss)
	}
	if signal.Strategy != "baseline_v1.2" {
		t.Fatalf("expected strategy carried over, got %q", signal.Strategy)
	}
}

func TestMapWebhookToSignal_CaseInsensitive(t *testing.T) {
	payload := &externalmodel.WebhookPayload{
		Symbol: "ethusdt",
		Action: "exit",
		Type:   "sell",
	}

	signal, err := MapWebhookToSignal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signal.Action != model.ActionExit || signal.Side != model.SideSell {
		t.Fatalf("unexpected action/side: %s/%s", signal.Action, signal.Side)
	}
	if signal.Symbol != "ETH" {
		t.Fatalf("expected ETH, got %q", signal.Symbol)
	}
}

func TestMapWebhookToSignal_Rejections(t *testing.T) {
	cases := map[string]*externalmodel.WebhookPayload{
		"nil payload":    nil,
		"missing symbol": {Action: "ENTRY", Type: "BUY", Price: 100},
		"missing action": {Symbol: "BTCUSDT", Type: "BUY", Price: 100},
		"unknown action": {Symbol: "BTCUSDT", Action: "HOLD", Type: "BUY", Price: 100},
		"missing type":   {Symbol: "BTCUSDT", Action: "ENTRY", Price: 100},
		"unknown type":   {Symbol: "BTCUSDT", Action: "ENTRY", Type: "LONG", Price: 100},
		"zero price":     {Symbol: "BTCUSDT", Action: "ENTRY", Type: "BUY"},
	}

	for name, payload := range cases {
		_, err := MapWebhookToSignal(payload)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("%s: expected ParseError, got %T", name, err)
		}
	}
}

func TestMapWebhookToSignal_UpdateStopWithoutPrice(t *testing.T) {
	// UPDATE_STOP may arrive with price only, no stopLoss field
	payload := &externalmodel.WebhookPayload{
		Symbol: "BTCUSDT",
		Action: "UPDATE_STOP",
		Type:   "BUY",
		Price:  96000,
	}

	signal, err := MapWebhookToSignal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Action != model.ActionUpdateStop {
		t.Fatalf("expected UPDATE_STOP action, got %s", signal.Action)
	}
	if signal.HasStopLoss() {
		t.Fatalf("expected no stop loss on signal")
	}
}
