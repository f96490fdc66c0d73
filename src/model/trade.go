package model

import "time"

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// TradeContext carries the protective state of an open trade between ticks.
// It is the only place stop/target levels live while the position is open.
// Pointer fields distinguish "never set" from zero so a partial update can
// merge without clobbering values written by an earlier tick.
type TradeContext struct {
	Atr              *float64 `json:"atr,omitempty"`
	StopLoss         *float64 `json:"sl,omitempty"`
	TakeProfit       *float64 `json:"tp,omitempty"`
	Side             string   `json:"side,omitempty"` // LONG | SHORT
	MoveToBEAtr      *float64 `json:"move_to_be_atr,omitempty"`
	TrailStartAtr    *float64 `json:"trail_start_atr,omitempty"`
	TrailDistanceAtr *float64 `json:"trail_distance_atr,omitempty"`
}

// Merge overlays the set fields of patch onto c and reports whether anything
// changed. Keys absent from the patch keep their current value.
func (c *TradeContext) Merge(patch TradeContext) bool {
	changed := false
	if patch.Atr != nil {
		c.Atr = patch.Atr
		changed = true
	}
	if patch.StopLoss != nil {
		c.StopLoss = patch.StopLoss
		changed = true
	}
	if patch.TakeProfit != nil {
		c.TakeProfit = patch.TakeProfit
		changed = true
	}
	if patch.Side != "" {
		c.Side = patch.Side
		changed = true
	}
	if patch.MoveToBEAtr != nil {
		c.MoveToBEAtr = patch.MoveToBEAtr
		changed = true
	}
	if patch.TrailStartAtr != nil {
		c.TrailStartAtr = patch.TrailStartAtr
		changed = true
	}
	if patch.TrailDistanceAtr != nil {
		c.TrailDistanceAtr = patch.TrailDistanceAtr
		changed = true
	}
	return changed
}

// Trade is one position lifecycle in the paper ledger, created at open and
// terminated exactly once at close. Closed rows are immutable and feed the
// per-strategy aggregates.
type Trade struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	TradeID      string       `gorm:"size:120;not null;uniqueIndex" json:"trade_id"`
	Strategy     string       `gorm:"size:100;not null;index" json:"strategy"`
	ProductID    string       `gorm:"size:50;not null;index" json:"product_id"`
	Side         string       `gorm:"size:10;not null" json:"side"` // buy | sell
	EntryPrice   float64      `gorm:"not null" json:"entry_price"`
	Quantity     float64      `gorm:"not null" json:"quantity"`
	EntryTime    time.Time    `gorm:"not null;index" json:"entry_time"`
	EntryOrderID string       `gorm:"size:120" json:"entry_order_id"`
	ExitPrice    *float64     `json:"exit_price,omitempty"`
	ExitTime     *time.Time   `json:"exit_time,omitempty"`
	ExitOrderID  *string      `gorm:"size:120" json:"exit_order_id,omitempty"`
	FeesPaid     float64      `json:"fees_paid"`
	RealizedPnl  *float64     `json:"realized_pnl,omitempty"`
	Status       string       `gorm:"size:20;not null;default:open;index" json:"status"`
	Context      TradeContext `gorm:"column:strategy_context;serializer:json" json:"strategy_context"`
	Notes        string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName allows you to control the exact table name for trades.
func (Trade) TableName() string {
	return "trades"
}

// IsOpen reports whether the row still represents live exposure.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// CloseResult summarizes one terminated trade for the caller.
type CloseResult struct {
	TradeID            string  `json:"trade_id"`
	GrossPnl           float64 `json:"gross_pnl"`
	FeesPaid           float64 `json:"fees_paid"`
	NetPnl             float64 `json:"net_pnl"`
	PnlPercentage      float64 `json:"pnl_percentage"`
	HoldingPeriodHours float64 `json:"holding_period_hours"`
}
