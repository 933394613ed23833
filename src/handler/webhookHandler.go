package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/controller"
	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/mapper"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

type signalProcessor interface {
	Process(ctx context.Context, payload *externalmodel.WebhookPayload) (*externalmodel.OrderResult, *model.TradingSignal, error)
}

type tradeNotifier interface {
	NotifyResult(ctx context.Context, signal *model.TradingSignal, result *externalmodel.OrderResult)
	NotifyError(ctx context.Context, signal *model.TradingSignal, err error)
}

// WebhookHandler returns the POST /webhook handler. Malformed or invalid
// signals get a 400, skipped duplicates a 200 with skipped set, exchange
// and internal failures a 500. Notifications go out in the background and
// never delay the response.
func WebhookHandler(processor signalProcessor, notifier tradeNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload externalmodel.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("Failed to decode webhook payload")
			writeJSON(w, http.StatusBadRequest, externalmodel.OrderResult{
				Error: "invalid JSON payload",
			})
			return
		}

		result, signal, err := processor.Process(r.Context(), &payload)
		if err != nil {
			status := http.StatusInternalServerError

			var parseErr *mapper.ParseError
			var validationErr *controller.ValidationError
			if errors.As(err, &parseErr) || errors.As(err, &validationErr) {
				status = http.StatusBadRequest
			}

			logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": payload.Symbol,
				"status": status,
			}).Error("Webhook processing failed")

			notifyErrorAsync(notifier, signal, err)
			writeJSON(w, status, externalmodel.OrderResult{Error: err.Error()})
			return
		}

		notifyResultAsync(notifier, signal, result)
		writeJSON(w, http.StatusOK, *result)
	}
}

func notifyResultAsync(notifier tradeNotifier, signal *model.TradingSignal, result *externalmodel.OrderResult) {
	if notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		notifier.NotifyResult(ctx, signal, result)
	}()
}

func notifyErrorAsync(notifier tradeNotifier, signal *model.TradingSignal, err error) {
	if notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		notifier.NotifyError(ctx, signal, err)
	}()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to encode webhook response")
	}
}
