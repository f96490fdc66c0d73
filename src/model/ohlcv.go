package model

import (
	"papertrader/src/utils"
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVBase is the interval-agnostic candle shape used while fetching and
// aggregating, before the row is routed to its interval table.
type OHLCVBase struct {
	ID       uint            `json:"id"`
	Datetime time.Time       `json:"datetime"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	Symbol   string          `json:"symbol"`
}

func (o *OHLCVBase) ConvertToOHLCVCrypto1h() *OHLCVCrypto1h {
	return &OHLCVCrypto1h{
		ID:       o.ID,
		Datetime: utils.ResetTime(o.Datetime, "hour"),
		Open:     o.Open,
		High:     o.High,
		Low:      o.Low,
		Close:    o.Close,
		Volume:   o.Volume,
		Symbol:   o.Symbol,
	}
}

func (o *OHLCVBase) ConvertToOHLCVCrypto1m() *OHLCVCrypto1m {
	return &OHLCVCrypto1m{
		ID:       o.ID,
		Datetime: utils.ResetTime(o.Datetime, "minute"),
		Open:     o.Open,
		High:     o.High,
		Low:      o.Low,
		Close:    o.Close,
		Volume:   o.Volume,
		Symbol:   o.Symbol,
	}
}
