package model

import "time"

// PaperOrderReason constants classify why a simulated fill was booked.
const (
	PaperOrderReasonEntry       = "entry"
	PaperOrderReasonExit        = "exit"
	PaperOrderReasonAutoExit    = "auto_exit"
	PaperOrderReasonReverseExit = "reverse_exit"
)

// PaperOrder is the audit row for one simulated fill. Every entry and exit
// the engine books gets exactly one, keyed by the synthetic order token that
// is also stored on the trade row for correlation.
type PaperOrder struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Synthetic token, e.g. "paper_entry_3f2a...".
	OrderID string `gorm:"size:120;not null;uniqueIndex" json:"order_id"`

	// Snapshot of the trade at the moment of this fill
	TradeID   string  `gorm:"size:120;not null;index" json:"trade_id"`
	Strategy  string  `gorm:"size:100;index" json:"strategy"`
	ProductID string  `gorm:"size:50" json:"product_id"`
	Side      string  `gorm:"size:10" json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`

	// See PaperOrderReason* constants
	Reason    string    `gorm:"size:30;not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName allows you to control the exact table name for paper fills.
func (PaperOrder) TableName() string {
	return "paper_orders"
}
