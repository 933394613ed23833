package notify

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TelegramBotToken left empty disables notifications entirely.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	TimeoutSec       int    `envconfig:"TELEGRAM_TIMEOUT_SEC" default:"10"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
