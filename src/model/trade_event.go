package model

import "time"

// Trade lifecycle event names.
const (
	TradeEventOpened      = "opened"
	TradeEventStopRatchet = "stop_ratchet"
	TradeEventClosed      = "closed"
)

// TradeEvent is the append-only lifecycle log for a trade: one row at open,
// one per stop ratchet, one at close.
type TradeEvent struct {
	ID        uint                   `gorm:"primaryKey" json:"id"`
	TradeID   string                 `gorm:"size:120;not null;index" json:"trade_id"`
	Event     string                 `gorm:"size:50;not null" json:"event"`
	Level     string                 `gorm:"size:20;not null" json:"level"`
	Message   string                 `gorm:"size:1024;not null" json:"message"`
	Metadata  map[string]interface{} `gorm:"serializer:json" json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// TableName allows you to control the exact table name for trade events.
func (TradeEvent) TableName() string {
	return "trade_events"
}
