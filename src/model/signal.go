package model

// Action is the canonical intent of a trading signal.
type Action string

const (
	ActionEntry      Action = "ENTRY"
	ActionExit       Action = "EXIT"
	ActionUpdateStop Action = "UPDATE_STOP"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradingSignal is the canonical, parsed form of an inbound webhook payload.
// It is ephemeral: built per request, never persisted directly.
type TradingSignal struct {
	Symbol   string   `json:"symbol"`
	Action   Action   `json:"action"`
	Side     Side     `json:"side"`
	Price    float64  `json:"price"`
	StopLoss *float64 `json:"stop_loss,omitempty"`
	Strategy string   `json:"strategy"`
}

// HasStopLoss reports whether the signal carries a stop-loss price.
func (s *TradingSignal) HasStopLoss() bool {
	return s.StopLoss != nil && *s.StopLoss > 0
}

// IsBuy reports whether the signal trades in the long direction.
func (s *TradingSignal) IsBuy() bool {
	return s.Side == SideBuy
}
