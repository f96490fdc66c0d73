package model

import "time"

// StrategyPerformance is the per-strategy aggregate over closed trades. It is
// a materialized view recomputed from scratch after every close, never
// updated incrementally, so it must always equal a full replay of the closed
// trades for that strategy.
type StrategyPerformance struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Strategy      string    `gorm:"size:100;not null;uniqueIndex" json:"strategy"`
	TotalTrades   int       `gorm:"not null" json:"total_trades"`
	WinningTrades int       `gorm:"not null" json:"winning_trades"`
	LosingTrades  int       `gorm:"not null" json:"losing_trades"`
	WinRate       float64   `json:"win_rate"` // percentage, winning/total*100
	TotalPnl      float64   `json:"total_pnl"`
	TotalFees     float64   `json:"total_fees"`
	AvgWin        float64   `json:"avg_win"`
	AvgLoss       float64   `json:"avg_loss"` // mean of negative PnLs, stays negative
	MaxDrawdown   float64   `json:"max_drawdown"`
	LastUpdated   time.Time `json:"last_updated"`
}

// TableName allows you to control the exact table name for the aggregates.
func (StrategyPerformance) TableName() string {
	return "strategy_performance"
}

// PortfolioPerformance is the ledger-wide rollup across every strategy,
// computed on demand and never persisted.
type PortfolioPerformance struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnl      float64 `json:"total_pnl"`
	TotalFees     float64 `json:"total_fees"`
	NetPnl        float64 `json:"net_pnl"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
}
