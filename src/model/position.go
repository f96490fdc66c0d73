package model

const (
	PositionSideFlat  = "FLAT"
	PositionSideLong  = "LONG"
	PositionSideShort = "SHORT"
)

// PaperPosition is the in-memory view of the exposure currently under
// management. It is rebuilt from the open trade row plus its context on every
// tick and never persisted on its own; the trade row stays the single source
// of truth.
type PaperPosition struct {
	Side       string
	Size       float64
	EntryPrice float64
	StopLoss   *float64
	TakeProfit *float64
	AtrAtEntry *float64
}

// IsFlat reports whether there is no exposure to manage.
func (p PaperPosition) IsFlat() bool {
	return p.Side == PositionSideFlat || p.Size <= 0
}

// PositionFromTrade rebuilds the managed position from an open trade row.
// The context side wins over the row side when both are present, matching
// how the trade was reconstructed before a direction-aware context existed.
func PositionFromTrade(t *Trade) PaperPosition {
	side := PositionSideLong
	if t.Side == TradeSideSell {
		side = PositionSideShort
	}
	if s := t.Context.Side; s == PositionSideLong || s == PositionSideShort {
		side = s
	}
	return PaperPosition{
		Side:       side,
		Size:       t.Quantity,
		EntryPrice: t.EntryPrice,
		StopLoss:   t.Context.StopLoss,
		TakeProfit: t.Context.TakeProfit,
		AtrAtEntry: t.Context.Atr,
	}
}
