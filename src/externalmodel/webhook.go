package externalmodel

// WebhookPayload is the raw inbound alert body. Fields arrive as free-form
// strings from the alert source and are mapped into a canonical signal by
// the mapper package.
//
// Example:
//
//	{
//	  "symbol": "BTCUSDT",
//	  "action": "ENTRY",
//	  "type": "BUY",
//	  "price": 95000,
//	  "stopLoss": 94000,
//	  "strategy": "baseline_v1.2"
//	}
type WebhookPayload struct {
	Symbol   string   `json:"symbol"`
	Action   string   `json:"action"`
	Type     string   `json:"type"`
	Price    float64  `json:"price"`
	StopLoss *float64 `json:"stopLoss,omitempty"`
	Strategy string   `json:"strategy"`
}

// OrderResult is the outcome of processing one webhook delivery.
type OrderResult struct {
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	DBOrderID uint   `json:"dbOrderId,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ValidationResult is the verdict of signal validation. Skipped marks a
// duplicate or no-op delivery that must be absorbed silently rather than
// surfaced as an error.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
