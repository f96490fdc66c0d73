package executor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"papertrader/src/database"
	"papertrader/src/executors"
)

// Executor runs the standalone price loop without the HTTP API. It feeds
// every observed price through stop management until interrupted.
type Executor struct{}

func (t *Executor) Start() error {
	config := executors.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) ledger database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	// The signal snapshot database is only mandatory for the signals price
	// source. StartLoop rejects that source when the connection is absent.
	if database.GetConfig().DatabaseURLReadOnly == "" {
		logrus.Info("DATABASE_URL_READONLY not set, skipping signal database")
	} else if err := database.InitReadOnlyDB(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to signal database")
	}

	logrus.WithField("priceSource", config.PriceSource).Info("Starting paper trading price loop")

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start price loop")
		return err
	}

	return nil
}
