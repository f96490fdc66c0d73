package tp_sl

import (
	"math"

	"papertrader/src/model"
)

// ComputeATR computes the Wilder average true range over the given candles.
// The seed is the simple mean of the first period true ranges, smoothed with
// atr = (atr*(period-1) + tr) / period for the remainder. Returns ok=false
// when fewer than period+1 candles are available, so callers can fall back to
// another volatility source.
func ComputeATR(candles []model.OHLCVCrypto1m, period int) (float64, bool) {
	if period <= 0 {
		period = 14
	}
	if len(candles) < period+1 {
		return 0, false
	}

	// true range needs the previous close, so it starts at the second candle
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High.InexactFloat64()
		low := candles[i].Low.InexactFloat64()
		prevClose := candles[i-1].Close.InexactFloat64()

		tr := high - low
		if v := math.Abs(high - prevClose); v > tr {
			tr = v
		}
		if v := math.Abs(low - prevClose); v > tr {
			tr = v
		}
		trs = append(trs, tr)
	}

	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)

	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, true
}
