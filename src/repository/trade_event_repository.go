package repository

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// TradeEventRepository reads the lifecycle log written alongside trades.
// Writes happen inside TradeRepository transactions so an event is never
// recorded without its trade change.
type TradeEventRepository struct {
	db *gorm.DB
}

// NewTradeEventRepository creates a new repository instance using the main read/write database.
func NewTradeEventRepository() *TradeEventRepository {
	logger.WithField("component", "TradeEventRepository").
		Info("Creating new TradeEventRepository with MainDB")

	return &TradeEventRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeEventRepository) WithDB(db *gorm.DB) *TradeEventRepository {
	logger.WithField("component", "TradeEventRepository").
		Debug("Creating TradeEventRepository with custom DB instance")

	return &TradeEventRepository{db: db}
}

// FindByTradeID returns the lifecycle events of one trade, oldest first.
func (r *TradeEventRepository) FindByTradeID(
	ctx context.Context,
	tradeID string,
) ([]model.TradeEvent, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeEventRepository",
		"op":       "FindByTradeID",
		"trade_id": tradeID,
	}).Debug("Fetching trade events")

	var events []model.TradeEvent

	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id ASC").
		Find(&events).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeEventRepository",
			"op":       "FindByTradeID",
			"trade_id": tradeID,
		}).WithError(err).Error("Failed to fetch trade events")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TradeEventRepository",
		"op":          "FindByTradeID",
		"trade_id":    tradeID,
		"rows_return": len(events),
	}).Info("Trade events fetched")

	return events, nil
}

// FindLastByTradeID returns the most recent lifecycle event of one trade.
// Returns (nil, nil) if the trade has no events.
func (r *TradeEventRepository) FindLastByTradeID(
	ctx context.Context,
	tradeID string,
) (*model.TradeEvent, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeEventRepository",
		"op":       "FindLastByTradeID",
		"trade_id": tradeID,
	}).Debug("Fetching last trade event")

	var event model.TradeEvent

	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id DESC").
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeEventRepository",
				"op":       "FindLastByTradeID",
				"trade_id": tradeID,
			}).Info("No events found for trade")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "TradeEventRepository",
			"op":       "FindLastByTradeID",
			"trade_id": tradeID,
		}).WithError(err).Error("Failed to fetch last trade event")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return &event, nil
}
