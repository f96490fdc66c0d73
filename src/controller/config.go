package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	StartingBalance float64 `envconfig:"STARTING_BALANCE" default:"10000"`
	PaperStrategy   string  `envconfig:"PAPER_STRATEGY" default:"PAPER_TRADE"`
	PaperProductID  string  `envconfig:"PAPER_PRODUCT_ID" default:"BTC-USD"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
