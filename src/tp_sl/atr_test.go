package tp_sl

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"papertrader/src/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func c(dt time.Time, o, h, l, cl string) model.OHLCVCrypto1m {
	return model.OHLCVCrypto1m{
		Symbol:   "BTCUSDT",
		Datetime: dt,
		Open:     d(o),
		High:     d(h),
		Low:      d(l),
		Close:    d(cl),
		Volume:   d("1"),
	}
}

func TestComputeATR_NotEnoughCandles(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.OHLCVCrypto1m{
		c(now, "100", "102", "99", "100"),
		c(now.Add(time.Minute), "100", "103", "100", "102"),
	}

	atr, ok := ComputeATR(candles, 2)
	if ok {
		t.Fatalf("expected ok=false with %d candles for period 2", len(candles))
	}
	if atr != 0 {
		t.Fatalf("expected atr=0, got=%v", atr)
	}
}

func TestComputeATR_SeededMean(t *testing.T) {
	// TR(c1) = max(103-100, |103-100|, |100-100|) = 3
	// TR(c2) = max(104-101, |104-102|, |101-102|) = 3
	// period=2 => atr = (3+3)/2 = 3
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.OHLCVCrypto1m{
		c(now, "100", "102", "99", "100"),
		c(now.Add(1*time.Minute), "100", "103", "100", "102"),
		c(now.Add(2*time.Minute), "102", "104", "101", "103"),
	}

	atr, ok := ComputeATR(candles, 2)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if atr != 3 {
		t.Fatalf("expected atr=3, got=%v", atr)
	}
}

func TestComputeATR_GapUsesPrevClose(t *testing.T) {
	// c1 gaps above c0's close so its range is high-prevClose:
	// TR(c1) = max(112-109, |112-100|, |109-100|) = 12
	// TR(c2) = max(113-110, |113-111|, |110-111|) = 3
	// period=2 => atr = (12+3)/2 = 7.5
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.OHLCVCrypto1m{
		c(now, "100", "102", "99", "100"),
		c(now.Add(1*time.Minute), "110", "112", "109", "111"),
		c(now.Add(2*time.Minute), "111", "113", "110", "112"),
	}

	atr, ok := ComputeATR(candles, 2)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if atr != 7.5 {
		t.Fatalf("expected atr=7.5, got=%v", atr)
	}
}

func TestComputeATR_SmoothsBeyondSeed(t *testing.T) {
	// seed = (3+3)/2 = 3, then TR(c3) = max(109-102, |109-103|, |102-103|) = 7
	// atr = (3*(2-1) + 7) / 2 = 5
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.OHLCVCrypto1m{
		c(now, "100", "102", "99", "100"),
		c(now.Add(1*time.Minute), "100", "103", "100", "102"),
		c(now.Add(2*time.Minute), "102", "104", "101", "103"),
		c(now.Add(3*time.Minute), "103", "109", "102", "108"),
	}

	atr, ok := ComputeATR(candles, 2)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if atr != 5 {
		t.Fatalf("expected atr=5, got=%v", atr)
	}
}

func TestComputeATR_DefaultPeriod(t *testing.T) {
	// period<=0 falls back to 14, satisfied by 15 candles of constant range 2
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.OHLCVCrypto1m, 0, 15)
	for i := 0; i < 15; i++ {
		candles = append(candles, c(now.Add(time.Duration(i)*time.Minute), "100", "102", "100", "100"))
	}

	atr, ok := ComputeATR(candles, 0)
	if !ok {
		t.Fatalf("expected ok=true with 15 candles")
	}
	if atr != 2 {
		t.Fatalf("expected atr=2, got=%v", atr)
	}
}
