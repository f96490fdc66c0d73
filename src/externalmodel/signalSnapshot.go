package externalmodel

import "time"

// SignalSnapshot mirrors the indicator table populated by the external signal
// pipeline. It is read through the read-only connection and never written by
// this service, so every column is mapped explicitly instead of trusting
// naming conventions.
type SignalSnapshot struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	ProductID string    `gorm:"column:product_id" json:"product_id"`
	Close     *float64  `gorm:"column:close" json:"close,omitempty"`
	Atr       *float64  `gorm:"column:atr" json:"atr,omitempty"`
	Rsi       *float64  `gorm:"column:rsi" json:"rsi,omitempty"`
	Source    string    `gorm:"column:source" json:"source"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName Ensures that GORM uses the exact table name from the database.
func (SignalSnapshot) TableName() string {
	return "signal_snapshots"
}
