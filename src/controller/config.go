package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// FixedRiskUSD is the dollar amount lost when a stop is hit; position
	// size is derived from it and the stop distance.
	FixedRiskUSD    float64 `envconfig:"FIXED_RISK_USD" default:"5"`
	DefaultLeverage int     `envconfig:"DEFAULT_LEVERAGE" default:"8"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
