package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL     string `envconfig:"HYPERLIQUID_BASE_URL" default:""`
	Testnet     bool   `envconfig:"HYPERLIQUID_TESTNET" default:"false"`
	PrivateKey  string `envconfig:"HYPERLIQUID_PRIVATE_KEY" default:""`
	UserAddress string `envconfig:"HYPERLIQUID_USER_ADDRESS" default:""`
	TimeoutSec  int    `envconfig:"HYPERLIQUID_TIMEOUT_SEC" default:"15"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
