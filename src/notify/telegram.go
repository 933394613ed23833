package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"github.com/Legiang98/hyperliquid-trading/src/externalmodel"
	"github.com/Legiang98/hyperliquid-trading/src/model"
)

const telegramBaseURL = "https://api.telegram.org"

// Telegram posts trade notifications to a chat via the Bot API. Delivery is
// best effort: failures are logged and never affect the webhook response.
type Telegram struct {
	token  string
	chatID string
	http   *resty.Client
}

func NewTelegram(cfg Config) *Telegram {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Telegram{
		token:  cfg.TelegramBotToken,
		chatID: cfg.TelegramChatID,
		http: resty.New().
			SetBaseURL(telegramBaseURL).
			SetTimeout(timeout),
	}
}

// Enabled reports whether a bot token is configured.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// NotifyResult sends a summary of a processed signal.
func (t *Telegram) NotifyResult(ctx context.Context, signal *model.TradingSignal, result *externalmodel.OrderResult) {
	if !t.Enabled() {
		return
	}

	var text string
	switch {
	case result.Skipped:
		text = fmt.Sprintf("⏭ %s %s skipped: %s", signal.Symbol, signal.Action, result.Message)
	default:
		text = fmt.Sprintf("✅ %s %s %s: %s", signal.Symbol, signal.Action, signal.Side, result.Message)
	}

	t.send(ctx, text)
}

// NotifyError sends a failure summary.
func (t *Telegram) NotifyError(ctx context.Context, signal *model.TradingSignal, err error) {
	if !t.Enabled() {
		return
	}

	symbol := "unknown"
	action := ""
	if signal != nil {
		symbol = signal.Symbol
		action = string(signal.Action)
	}

	t.send(ctx, fmt.Sprintf("❌ %s %s failed: %v", symbol, action, err))
}

func (t *Telegram) send(ctx context.Context, text string) {
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id": t.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		logger.WithError(err).Error("Failed to send telegram notification")
		return
	}

	if resp.StatusCode() != 200 {
		logger.WithField("status", resp.StatusCode()).
			Error("Telegram API rejected notification")
	}
}
