package executors

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/database"
	"papertrader/src/externalmodel"
	"papertrader/src/model"
	"papertrader/src/repository"
)

// Price sources the management loop can follow.
const (
	PriceSourceRest    = "rest"
	PriceSourceStream  = "stream"
	PriceSourceCandles = "candles"
	PriceSourceSignals = "signals"
)

type priceFetcher interface {
	LastPrice(productID string) (float64, error)
}

type priceStream interface {
	Run(ctx context.Context, productID string, onPrice func(productID string, price float64)) error
}

type candleRepository interface {
	FetchRecentOHLCV1m(ctx context.Context, symbol string, to time.Time, limit int) ([]model.OHLCVCrypto1m, error)
}

type signalRepository interface {
	FindLatest(ctx context.Context, limit int) ([]externalmodel.SignalSnapshot, error)
	FindAfterID(ctx context.Context, lastID uint, limit int) ([]externalmodel.SignalSnapshot, error)
	CountNewAfterID(ctx context.Context, lastID uint) (int64, error)
}

var (
	newMarketDataClient = func(baseURL string) priceFetcher {
		return connectors.NewMarketDataClient(baseURL)
	}
	newPriceStream = func(url string) priceStream {
		return connectors.NewPriceStream(url)
	}
	newCandleRepo = func() candleRepository {
		return repository.NewOHLCVRepository()
	}
	newSignalRepo = func() signalRepository {
		if database.ReadOnlyDB == nil {
			return nil
		}
		return repository.NewSignalSnapshotRepository()
	}
	onPriceFunc = controller.OnPrice
)

// StartLoop drives protective stop management for the configured product and
// strategy until the context ends. Prices come from the configured source:
// the REST ticker, the websocket feed, stored candles or signal snapshots.
// Management errors are logged and the loop keeps going, only a broken
// precondition stops it.
func StartLoop(ctx context.Context) error {
	config := GetConfig()
	ctrlConfig := controller.GetConfig()
	connConfig := connectors.GetConfig()

	productID := ctrlConfig.PaperProductID
	strategy := ctrlConfig.PaperStrategy

	logger.WithFields(map[string]interface{}{
		"product_id":   productID,
		"strategy":     strategy,
		"price_source": config.PriceSource,
		"loop_period":  config.LoopPeriod.String(),
	}).Info("starting paper management loop")

	if config.PriceSource == PriceSourceStream {
		return runStream(ctx, config, connConfig.PriceStreamURL, productID, strategy)
	}

	var fetcher priceFetcher
	var candles candleRepository
	var signals signalRepository
	var lastSeenID uint

	switch config.PriceSource {
	case PriceSourceRest:
		fetcher = newMarketDataClient(connConfig.MarketDataURL)
	case PriceSourceCandles:
		candles = newCandleRepo()
	case PriceSourceSignals:
		signals = newSignalRepo()
		if signals == nil {
			return fmt.Errorf("price source %q requires the read-only signal database", PriceSourceSignals)
		}
		// Baseline at the newest row so the loop only reacts to snapshots
		// written after startup.
		latest, err := signals.FindLatest(ctx, 1)
		if err != nil {
			logger.WithError(err).Error("failed to baseline signal snapshots")
			return err
		}
		if len(latest) > 0 {
			lastSeenID = latest[0].ID
		}
	default:
		return fmt.Errorf("price source %q not supported", config.PriceSource)
	}

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return nil

		case <-ticker.C:
			switch config.PriceSource {
			case PriceSourceSignals:
				lastSeenID = drainSignals(ctx, signals, lastSeenID, config.SignalBatchLimit, productID, strategy)
			default:
				price, err := resolvePrice(ctx, config.PriceSource, fetcher, candles, productID)
				if err != nil {
					logger.WithError(err).WithField("product_id", productID).
						Error("failed to resolve price, skipping tick")
					continue
				}
				managePrice(ctx, productID, strategy, price)
			}
		}
	}
}

func runStream(ctx context.Context, config Config, url, productID, strategy string) error {
	stream := newPriceStream(url)

	for {
		err := stream.Run(ctx, productID, func(tickProduct string, price float64) {
			if tickProduct != productID {
				return
			}
			managePrice(ctx, productID, strategy, price)
		})
		if ctx.Err() != nil {
			logger.Info("loop stopped")
			return nil
		}

		logger.WithError(err).WithField("reconnect_in", config.StreamReconnectWait.String()).
			Warn("price stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return nil
		case <-time.After(config.StreamReconnectWait):
		}
	}
}

func resolvePrice(ctx context.Context, source string, fetcher priceFetcher, candles candleRepository, productID string) (float64, error) {
	switch source {
	case PriceSourceRest:
		return fetcher.LastPrice(productID)
	case PriceSourceCandles:
		symbol := controller.ProductToSymbol(productID)
		rows, err := candles.FetchRecentOHLCV1m(ctx, symbol, time.Now().UTC(), 1)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, fmt.Errorf("no candles stored for %s", symbol)
		}
		return rows[len(rows)-1].Close.InexactFloat64(), nil
	}
	return 0, fmt.Errorf("price source %q not supported", source)
}

// drainSignals feeds the closes of freshly written snapshots through price
// management, oldest first, and returns the new high-water mark.
func drainSignals(ctx context.Context, signals signalRepository, lastSeenID uint, batchLimit int, productID, strategy string) uint {
	count, err := signals.CountNewAfterID(ctx, lastSeenID)
	if err != nil {
		logger.WithError(err).Error("failed to count new signal snapshots")
		return lastSeenID
	}
	if count == 0 {
		return lastSeenID
	}

	batch, err := signals.FindAfterID(ctx, lastSeenID, batchLimit)
	if err != nil {
		logger.WithError(err).Error("failed to fetch new signal snapshots")
		return lastSeenID
	}

	for _, snap := range batch {
		lastSeenID = snap.ID
		if snap.ProductID != productID || snap.Close == nil {
			continue
		}
		managePrice(ctx, productID, strategy, *snap.Close)
	}
	return lastSeenID
}

// managePrice runs one observation through the controller. Failures are
// logged, never fatal, a later tick simply tries again.
func managePrice(ctx context.Context, productID, strategy string, price float64) {
	msg, err := onPriceFunc(ctx, controller.TickRequest{
		Price:     &price,
		ProductID: productID,
		Strategy:  strategy,
	})
	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"product_id": productID,
			"price":      price,
		}).Error("price management failed")
		return
	}

	logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"price":      price,
	}).Info(msg)
}
