package repository

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// PaperOrderRepository handles the audit trail of simulated fills.
type PaperOrderRepository struct {
	db *gorm.DB
}

// NewPaperOrderRepository creates a new repository instance using the main read/write database.
func NewPaperOrderRepository() *PaperOrderRepository {
	logger.WithField("component", "PaperOrderRepository").
		Info("Creating new PaperOrderRepository with MainDB")

	return &PaperOrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PaperOrderRepository) WithDB(db *gorm.DB) *PaperOrderRepository {
	logger.WithField("component", "PaperOrderRepository").
		Debug("Creating PaperOrderRepository with custom DB instance")

	return &PaperOrderRepository{db: db}
}

// Create books one simulated fill.
func (r *PaperOrderRepository) Create(
	ctx context.Context,
	order *model.PaperOrder,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "PaperOrderRepository",
		"op":       "Create",
		"order_id": order.OrderID,
		"trade_id": order.TradeID,
		"reason":   order.Reason,
	}).Debug("Creating paper order")

	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PaperOrderRepository",
			"op":       "Create",
			"order_id": order.OrderID,
		}).WithError(err).Error("Failed to create paper order")

		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "PaperOrderRepository",
		"op":       "Create",
		"order_id": order.OrderID,
		"id":       order.ID,
	}).Info("Paper order created successfully")

	return nil
}

// FindByTradeID returns the fills booked for one trade, oldest first.
func (r *PaperOrderRepository) FindByTradeID(
	ctx context.Context,
	tradeID string,
) ([]model.PaperOrder, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "PaperOrderRepository",
		"op":       "FindByTradeID",
		"trade_id": tradeID,
	}).Debug("Fetching paper orders for trade")

	var orders []model.PaperOrder

	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id ASC").
		Find(&orders).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PaperOrderRepository",
			"op":       "FindByTradeID",
			"trade_id": tradeID,
		}).WithError(err).Error("Failed to fetch paper orders")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "PaperOrderRepository",
		"op":          "FindByTradeID",
		"trade_id":    tradeID,
		"rows_return": len(orders),
	}).Info("Paper orders fetched")

	return orders, nil
}
