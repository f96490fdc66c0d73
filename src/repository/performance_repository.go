package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/src/database"
	"papertrader/src/model"
)

// closedTradeRow is the projection used when replaying closed trades.
type closedTradeRow struct {
	RealizedPnl float64
	FeesPaid    float64
}

// PerformanceRepository maintains the per-strategy aggregate rows. They are
// pure materialized views over closed trades: every write is a full replay,
// never an incremental update.
type PerformanceRepository struct {
	db *gorm.DB
}

// NewPerformanceRepository creates a new repository instance using the main read/write database.
func NewPerformanceRepository() *PerformanceRepository {
	logger.WithField("component", "PerformanceRepository").
		Info("Creating new PerformanceRepository with MainDB")

	return &PerformanceRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PerformanceRepository) WithDB(db *gorm.DB) *PerformanceRepository {
	logger.WithField("component", "PerformanceRepository").
		Debug("Creating PerformanceRepository with custom DB instance")

	return &PerformanceRepository{db: db}
}

// Recompute rebuilds the aggregate row for the strategy by replaying all its
// closed trades and returns the fresh figures. With no closed trades nothing
// is written and (nil, nil) is returned.
func (r *PerformanceRepository) Recompute(
	ctx context.Context,
	strategy string,
) (*model.StrategyPerformance, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "PerformanceRepository",
		"op":       "Recompute",
		"strategy": strategy,
	}).Debug("Recomputing strategy performance")

	perf, err := recomputePerformance(ctx, r.db, strategy)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PerformanceRepository",
			"op":       "Recompute",
			"strategy": strategy,
		}).WithError(err).Error("Failed to recompute strategy performance")

		return nil, err
	}

	if perf != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "PerformanceRepository",
			"op":           "Recompute",
			"strategy":     strategy,
			"total_trades": perf.TotalTrades,
			"total_pnl":    perf.TotalPnl,
		}).Info("Strategy performance recomputed")
	}

	return perf, nil
}

// FindByStrategy fetches the aggregate row for one strategy.
// Returns (nil, nil) if the strategy has no closed trades yet.
func (r *PerformanceRepository) FindByStrategy(
	ctx context.Context,
	strategy string,
) (*model.StrategyPerformance, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "PerformanceRepository",
		"op":       "FindByStrategy",
		"strategy": strategy,
	}).Debug("Fetching strategy performance")

	var perf model.StrategyPerformance

	err := r.db.WithContext(ctx).
		Where("strategy = ?", strategy).
		First(&perf).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "PerformanceRepository",
				"op":       "FindByStrategy",
				"strategy": strategy,
			}).Info("No performance row for strategy")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "PerformanceRepository",
			"op":       "FindByStrategy",
			"strategy": strategy,
		}).WithError(err).Error("Failed to fetch strategy performance")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return &perf, nil
}

// ListAll returns the aggregate rows for every strategy that has closed
// trades, ordered by strategy name for stable output.
func (r *PerformanceRepository) ListAll(
	ctx context.Context,
) ([]model.StrategyPerformance, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "PerformanceRepository",
		"op":   "ListAll",
	}).Debug("Fetching all strategy performance rows")

	var rows []model.StrategyPerformance

	err := r.db.WithContext(ctx).
		Order("strategy ASC").
		Find(&rows).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PerformanceRepository",
			"op":   "ListAll",
		}).WithError(err).Error("Failed to fetch strategy performance rows")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "PerformanceRepository",
		"op":          "ListAll",
		"rows_return": len(rows),
	}).Info("Strategy performance rows fetched")

	return rows, nil
}

// Overall rolls up every closed trade across all strategies into one
// portfolio view. Returns (nil, nil) when no trade has closed yet.
func (r *PerformanceRepository) Overall(
	ctx context.Context,
) (*model.PortfolioPerformance, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "PerformanceRepository",
		"op":   "Overall",
	}).Debug("Computing portfolio-wide performance")

	var rows []closedTradeRow

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("realized_pnl", "fees_paid").
		Where("status = ? AND realized_pnl IS NOT NULL", model.TradeStatusClosed).
		Order("id ASC").
		Find(&rows).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PerformanceRepository",
			"op":   "Overall",
		}).WithError(err).Error("Failed to scan closed trades")

		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	if len(rows) == 0 {
		logger.WithFields(map[string]interface{}{
			"repo": "PerformanceRepository",
			"op":   "Overall",
		}).Info("No closed trades found")

		return nil, nil
	}

	var wins, losses int
	var totalPnl, totalFees, winSum, lossSum float64

	for _, row := range rows {
		totalPnl += row.RealizedPnl
		totalFees += row.FeesPaid
		if row.RealizedPnl > 0 {
			wins++
			winSum += row.RealizedPnl
		}
		if row.RealizedPnl < 0 {
			losses++
			lossSum += row.RealizedPnl
		}
	}

	perf := &model.PortfolioPerformance{
		TotalTrades:   len(rows),
		WinningTrades: wins,
		WinRate:       float64(wins) / float64(len(rows)) * 100,
		TotalPnl:      totalPnl,
		TotalFees:     totalFees,
		NetPnl:        totalPnl - totalFees,
	}
	if wins > 0 {
		perf.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		perf.AvgLoss = lossSum / float64(losses)
	}
	if perf.AvgLoss != 0 {
		perf.ProfitFactor = math.Abs(perf.AvgWin / perf.AvgLoss)
	}

	return perf, nil
}

// recomputePerformance replays the closed trades of one strategy in insertion
// order and upserts the aggregate row. Shared with the trade close path,
// which triggers it as a side effect.
func recomputePerformance(ctx context.Context, db *gorm.DB, strategy string) (*model.StrategyPerformance, error) {
	var rows []closedTradeRow

	err := db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("realized_pnl", "fees_paid").
		Where("strategy = ? AND status = ? AND realized_pnl IS NOT NULL", strategy, model.TradeStatusClosed).
		Order("id ASC").
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	var wins, losses int
	var totalPnl, totalFees, winSum, lossSum float64

	for _, row := range rows {
		totalPnl += row.RealizedPnl
		totalFees += row.FeesPaid
		if row.RealizedPnl > 0 {
			wins++
			winSum += row.RealizedPnl
		}
		if row.RealizedPnl < 0 {
			losses++
			lossSum += row.RealizedPnl
		}
	}

	perf := model.StrategyPerformance{
		Strategy:      strategy,
		TotalTrades:   len(rows),
		WinningTrades: wins,
		LosingTrades:  losses,
		WinRate:       float64(wins) / float64(len(rows)) * 100,
		TotalPnl:      totalPnl,
		TotalFees:     totalFees,
		LastUpdated:   time.Now().UTC(),
	}
	if wins > 0 {
		perf.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		perf.AvgLoss = lossSum / float64(losses)
	}

	// Drawdown is peak-to-trough of the cumulative PnL sequence, with the
	// peak seeded from the first value so an opening loss is not counted
	// as a drawdown from zero.
	cumulative := 0.0
	peak := rows[0].RealizedPnl
	maxDrawdown := 0.0
	for _, row := range rows {
		cumulative += row.RealizedPnl
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	perf.MaxDrawdown = maxDrawdown

	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "strategy"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_trades", "winning_trades", "losing_trades", "win_rate",
				"total_pnl", "total_fees", "avg_win", "avg_loss",
				"max_drawdown", "last_updated",
			}),
		}).
		Create(&perf).Error

	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return &perf, nil
}
