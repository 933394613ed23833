package connectors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOrderIDMissing is returned when the exchange confirms an order but the
// response carries neither a resting nor a filled status with an oid.
var ErrOrderIDMissing = errors.New("exchange response contains no order id")

// ExchangeError is a rejection returned by the exchange API. It is terminal
// for the current webhook delivery; the pipeline never retries it.
type ExchangeError struct {
	Op     string
	Reason string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange error in %s: %s", e.Op, e.Reason)
}

// exchangeErrorCodes maps known exchange rejection phrases to stable short
// codes for logging and alerting.
var exchangeErrorCodes = map[string]string{
	"invalid size":                      "E_INVALID_SIZE",
	"price must be divisible":           "E_TICK_SIZE",
	"insufficient margin":               "E_INSUFFICIENT_MARGIN",
	"reduce only order would increase":  "E_REDUCE_ONLY_INCREASE",
	"order could not immediately match": "E_NO_MATCH",
	"order would trigger immediately":   "E_TRIGGER_IMMEDIATE",
	"asset not found":                   "E_UNKNOWN_ASSET",
	"order not found":                   "E_UNKNOWN_ORDER",
	"too many requests":                 "E_RATE_LIMITED",
}

// GetErrorCode returns a stable short code for a given exchange rejection
// message. Unknown messages get a generic code.
func GetErrorCode(msg string) string {
	lower := strings.ToLower(msg)
	for phrase, code := range exchangeErrorCodes {
		if strings.Contains(lower, phrase) {
			return code
		}
	}
	return "E_UNKNOWN"
}
