package risk

import "math"

const (
	// DefaultMinVolFrac floors the volatility estimate at 0.1% of price so a
	// quiet market cannot produce an unbounded position.
	DefaultMinVolFrac = 0.001

	// MinPositionSize is the smallest size SizeFromRisk returns.
	MinPositionSize = 1e-9
)

// SizeFromRisk converts a dollar risk budget into a position size, treating
// one ATR of adverse movement as the expected loss: size = riskUSD / atr.
//
// A missing or non-finite ATR falls back to price*minVolFrac, and the
// estimate is floored at that fraction either way. Returns 0 when price is
// not positive, never a negative or zero size otherwise.
func SizeFromRisk(riskUSD, price float64, atr *float64, minVolFrac float64) float64 {
	if minVolFrac <= 0 {
		minVolFrac = DefaultMinVolFrac
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}

	floor := price * minVolFrac
	atrForSize := floor
	if atr != nil && *atr > 0 && !math.IsNaN(*atr) && !math.IsInf(*atr, 0) {
		atrForSize = *atr
	}
	if atrForSize < floor {
		atrForSize = floor
	}

	size := riskUSD / atrForSize
	if size < MinPositionSize {
		size = MinPositionSize
	}
	return size
}
