package model

import (
	"fmt"
	"strconv"
)

// PositionSnapshot is the open-exposure slice of a portfolio summary.
// Side is FLAT with zeroed figures when nothing is open.
type PositionSnapshot struct {
	Side       string   `json:"side"`
	Size       float64  `json:"size"`
	EntryPrice float64  `json:"entry_price"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
}

// PortfolioSummary is the machine-usable equity snapshot returned by the
// orchestrator. String renders the one-line form the decision loop logs.
type PortfolioSummary struct {
	Strategy        string           `json:"strategy"`
	ProductID       string           `json:"product_id"`
	StartingBalance float64          `json:"starting_balance"`
	RealizedPnl     float64          `json:"realized_pnl"`
	UnrealizedPnl   float64          `json:"unrealized_pnl"`
	Cash            float64          `json:"cash"`
	Equity          float64          `json:"equity"`
	TotalPnl        float64          `json:"total_pnl"`
	PnlPct          float64          `json:"pnl_pct"`
	Position        PositionSnapshot `json:"position"`
}

func (s PortfolioSummary) String() string {
	return fmt.Sprintf(
		"Equity=%.2f Cash=%.2f PnL=%.2f (%.2f%%). Pos=%s size=%.8f entry=%.2f SL=%s TP=%s",
		s.Equity, s.Cash, s.TotalPnl, s.PnlPct,
		s.Position.Side, s.Position.Size, s.Position.EntryPrice,
		FormatLevel(s.Position.StopLoss), FormatLevel(s.Position.TakeProfit),
	)
}

// FormatLevel renders an optional price level for confirmation strings,
// "none" when unset.
func FormatLevel(v *float64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
