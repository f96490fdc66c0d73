package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MarketDataURL  string `envconfig:"MARKET_DATA_URL" default:"https://api.exchange.coinbase.com"`
	PriceStreamURL string `envconfig:"PRICE_STREAM_URL" default:"wss://ws-feed.exchange.coinbase.com"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
