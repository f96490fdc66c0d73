package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	PriceSource         string        `envconfig:"PRICE_SOURCE" default:"rest"`
	LoopPeriod          time.Duration `envconfig:"LOOP_PERIOD" default:"30s"`
	SignalBatchLimit    int           `envconfig:"SIGNAL_BATCH_LIMIT" default:"100"`
	StreamReconnectWait time.Duration `envconfig:"STREAM_RECONNECT_WAIT" default:"5s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
