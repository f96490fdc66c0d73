package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// TradeRepository handles read/write operations for the trade ledger and its
// lifecycle events. One row per position lifecycle; at most one open row per
// (product_id, strategy) pair, enforced by lookup-then-write discipline
// rather than a database constraint, so concurrent openers can race.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main read/write database.
func NewTradeRepository() *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with MainDB")

	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Debug("Creating TradeRepository with custom DB instance")

	return &TradeRepository{db: db}
}

// ---------------------------------------------------
// Write path
// ---------------------------------------------------

// InsertOpen writes a new open trade together with its "opened" lifecycle
// event in one transaction. A trade_id collision surfaces as
// model.ErrDuplicateKey so the caller can regenerate the token.
func (r *TradeRepository) InsertOpen(
	ctx context.Context,
	trade *model.Trade,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "InsertOpen",
		"trade_id":   trade.TradeID,
		"strategy":   trade.Strategy,
		"product_id": trade.ProductID,
		"side":       trade.Side,
		"qty":        trade.Quantity,
	}).Info("Creating open trade with lifecycle event")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trade).Error; err != nil {
			logger.WithError(err).Error("Failed to create trade inside transaction")
			return err
		}

		event := &model.TradeEvent{
			TradeID: trade.TradeID,
			Event:   model.TradeEventOpened,
			Level:   "info",
			Message: fmt.Sprintf("Opened %s %.8f @ %.2f", trade.Side, trade.Quantity, trade.EntryPrice),
			Metadata: map[string]interface{}{
				"strategy":    trade.Strategy,
				"product_id":  trade.ProductID,
				"side":        trade.Side,
				"entry_price": trade.EntryPrice,
				"quantity":    trade.Quantity,
			},
			CreatedAt: time.Now().UTC(),
		}

		if err := tx.Create(event).Error; err != nil {
			logger.WithError(err).Error("Failed to create opened event inside transaction")
			return err
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeRepository",
				"op":       "InsertOpen",
				"trade_id": trade.TradeID,
			}).Info("Trade ID already exists")

			return fmt.Errorf("%w: trade_id %s", model.ErrDuplicateKey, trade.TradeID)
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "InsertOpen",
			"trade_id": trade.TradeID,
		}).WithError(err).Error("Failed to create open trade")

		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "InsertOpen",
		"trade_id": trade.TradeID,
		"id":       trade.ID,
	}).Info("Open trade created successfully")

	return nil
}

// UpdateContext merge-patches the strategy context of the trade with the
// given trade_id. Only keys present in the patch overwrite stored values. A
// stop-loss change also appends a stop_ratchet event in the same transaction.
func (r *TradeRepository) UpdateContext(
	ctx context.Context,
	tradeID string,
	patch model.TradeContext,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "UpdateContext",
		"trade_id": tradeID,
	}).Debug("Updating trade context")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trade model.Trade

		if err := tx.
			Where("trade_id = ?", tradeID).
			First(&trade).Error; err != nil {
			return err
		}

		if changed := trade.Context.Merge(patch); !changed {
			return nil
		}

		if err := tx.
			Model(&model.Trade{}).
			Where("id = ?", trade.ID).
			Update("strategy_context", trade.Context).Error; err != nil {
			logger.WithError(err).Error("Failed to update strategy context inside transaction")
			return err
		}

		if patch.StopLoss != nil {
			event := &model.TradeEvent{
				TradeID:   tradeID,
				Event:     model.TradeEventStopRatchet,
				Level:     "info",
				Message:   fmt.Sprintf("Stop moved to %.2f", *patch.StopLoss),
				Metadata:  map[string]interface{}{"sl": *patch.StopLoss},
				CreatedAt: time.Now().UTC(),
			}

			if err := tx.Create(event).Error; err != nil {
				logger.WithError(err).Error("Failed to create stop_ratchet event inside transaction")
				return err
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeRepository",
				"op":       "UpdateContext",
				"trade_id": tradeID,
			}).Info("Trade not found for context update")

			return fmt.Errorf("%w: trade_id %s", model.ErrTradeNotFound, tradeID)
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "UpdateContext",
			"trade_id": tradeID,
		}).WithError(err).Error("Failed to update trade context")

		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return nil
}

// CloseTrade terminates the trade exactly once: sets the exit fields and the
// realized PnL, flips status to closed and appends the "closed" event in one
// transaction. fees replaces the fees_paid column rather than adding to it;
// paper entries carry zero fees so the close booking owns the full figure.
// After the commit the strategy aggregate is recomputed as a side effect; a
// recompute failure is logged but never fails the close, the row is already
// durable and the aggregate stays reproducible.
func (r *TradeRepository) CloseTrade(
	ctx context.Context,
	tradeID string,
	exitPrice float64,
	exitOrderID string,
	fees float64,
) (*model.CloseResult, error) {

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "CloseTrade",
		"trade_id":   tradeID,
		"exit_price": exitPrice,
	}).Debug("Closing trade")

	var result *model.CloseResult
	var strategy string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trade model.Trade

		if err := tx.
			Where("trade_id = ?", tradeID).
			First(&trade).Error; err != nil {
			return err
		}

		if trade.Status == model.TradeStatusClosed {
			return model.ErrAlreadyClosed
		}

		strategy = trade.Strategy
		exitTime := time.Now().UTC()

		grossPnl := (exitPrice - trade.EntryPrice) * trade.Quantity
		if trade.Side == model.TradeSideSell {
			grossPnl = (trade.EntryPrice - exitPrice) * trade.Quantity
		}
		netPnl := grossPnl - fees

		pnlPct := 0.0
		if notional := trade.EntryPrice * trade.Quantity; notional != 0 {
			pnlPct = netPnl / notional * 100
		}

		updates := map[string]interface{}{
			"exit_price":    exitPrice,
			"exit_time":     exitTime,
			"exit_order_id": exitOrderID,
			"fees_paid":     fees,
			"realized_pnl":  netPnl,
			"status":        model.TradeStatusClosed,
		}

		if err := tx.
			Model(&model.Trade{}).
			Where("id = ?", trade.ID).
			Updates(updates).Error; err != nil {
			logger.WithError(err).Error("Failed to update trade on close inside transaction")
			return err
		}

		event := &model.TradeEvent{
			TradeID: tradeID,
			Event:   model.TradeEventClosed,
			Level:   "info",
			Message: fmt.Sprintf("Closed at %.2f, realized PnL %.2f", exitPrice, netPnl),
			Metadata: map[string]interface{}{
				"exit_price":    exitPrice,
				"exit_order_id": exitOrderID,
				"net_pnl":       netPnl,
			},
			CreatedAt: exitTime,
		}

		if err := tx.Create(event).Error; err != nil {
			logger.WithError(err).Error("Failed to create closed event inside transaction")
			return err
		}

		result = &model.CloseResult{
			TradeID:            tradeID,
			GrossPnl:           grossPnl,
			FeesPaid:           fees,
			NetPnl:             netPnl,
			PnlPercentage:      pnlPct,
			HoldingPeriodHours: exitTime.Sub(trade.EntryTime).Hours(),
		}

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeRepository",
				"op":       "CloseTrade",
				"trade_id": tradeID,
			}).Info("Trade not found for close")

			return nil, fmt.Errorf("%w: trade_id %s", model.ErrTradeNotFound, tradeID)

		case errors.Is(err, model.ErrAlreadyClosed):
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeRepository",
				"op":       "CloseTrade",
				"trade_id": tradeID,
			}).Info("Trade already closed")

			return nil, fmt.Errorf("%w: trade_id %s", model.ErrAlreadyClosed, tradeID)

		default:
			logger.WithFields(map[string]interface{}{
				"repo":     "TradeRepository",
				"op":       "CloseTrade",
				"trade_id": tradeID,
			}).WithError(err).Error("Failed to close trade")

			return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
		}
	}

	if _, err := recomputePerformance(ctx, r.db, strategy); err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "CloseTrade",
			"strategy": strategy,
		}).WithError(err).Error("Failed to recompute strategy performance after close")
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "CloseTrade",
		"trade_id": tradeID,
		"net_pnl":  result.NetPnl,
	}).Info("Trade closed successfully")

	return result, nil
}

// ---------------------------------------------------
// Read path
// ---------------------------------------------------

// FindOpen returns the most recently opened trade with status open for the
// product under the given strategy. When the strategy has none, any open
// trade for the product is returned so heartbeat calls keep managing a
// position opened under a different strategy label.
// Returns (nil, nil) if nothing is open.
func (r *TradeRepository) FindOpen(
	ctx context.Context,
	productID string,
	strategy string,
) (*model.Trade, error) {

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "FindOpen",
		"product_id": productID,
		"strategy":   strategy,
	}).Debug("Fetching open trade")

	var trade model.Trade

	err := r.db.WithContext(ctx).
		Where("product_id = ? AND strategy = ? AND status = ?", productID, strategy, model.TradeStatusOpen).
		Order("entry_time DESC").
		First(&trade).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).
			Where("product_id = ? AND status = ?", productID, model.TradeStatusOpen).
			Order("entry_time DESC").
			First(&trade).Error
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":       "TradeRepository",
				"op":         "FindOpen",
				"product_id": productID,
				"strategy":   strategy,
			}).Info("No open trade found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "FindOpen",
			"product_id": productID,
			"strategy":   strategy,
		}).WithError(err).Error("Failed to fetch open trade")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "FindOpen",
		"product_id": productID,
		"trade_id":   trade.TradeID,
	}).Debug("Open trade fetched successfully")

	return &trade, nil
}

// RecentTrades returns the latest trades ordered from newest to oldest entry.
// An empty strategy matches all strategies.
func (r *TradeRepository) RecentTrades(
	ctx context.Context,
	strategy string,
	limit int,
) ([]model.Trade, error) {

	if limit <= 0 {
		limit = 10
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "RecentTrades",
		"strategy": strategy,
		"limit":    limit,
	}).Debug("Fetching recent trades")

	query := r.db.WithContext(ctx).
		Order("entry_time DESC").
		Limit(limit)

	if strategy != "" {
		query = query.Where("strategy = ?", strategy)
	}

	var trades []model.Trade

	if err := query.Find(&trades).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "RecentTrades",
			"strategy": strategy,
			"limit":    limit,
		}).WithError(err).Error("Failed to fetch recent trades")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TradeRepository",
		"op":          "RecentTrades",
		"strategy":    strategy,
		"limit":       limit,
		"rows_return": len(trades),
	}).Info("Recent trades fetched")

	return trades, nil
}

// SumRealizedPnl totals the realized PnL of closed trades for the
// strategy+product pair.
func (r *TradeRepository) SumRealizedPnl(
	ctx context.Context,
	strategy string,
	productID string,
) (float64, error) {

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "SumRealizedPnl",
		"strategy":   strategy,
		"product_id": productID,
	}).Debug("Summing realized PnL")

	var total float64

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("COALESCE(SUM(realized_pnl), 0)").
		Where("strategy = ? AND product_id = ? AND status = ?", strategy, productID, model.TradeStatusClosed).
		Scan(&total).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "SumRealizedPnl",
			"strategy":   strategy,
			"product_id": productID,
		}).WithError(err).Error("Failed to sum realized PnL")

		return 0, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return total, nil
}

// SumRealizedPnlForProduct totals the realized PnL of closed trades for the
// product across all strategies.
func (r *TradeRepository) SumRealizedPnlForProduct(
	ctx context.Context,
	productID string,
) (float64, error) {

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "SumRealizedPnlForProduct",
		"product_id": productID,
	}).Debug("Summing realized PnL for product")

	var total float64

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("COALESCE(SUM(realized_pnl), 0)").
		Where("product_id = ? AND status = ?", productID, model.TradeStatusClosed).
		Scan(&total).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "SumRealizedPnlForProduct",
			"product_id": productID,
		}).WithError(err).Error("Failed to sum realized PnL for product")

		return 0, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return total, nil
}
