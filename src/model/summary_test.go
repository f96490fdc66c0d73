package model

import "testing"

func TestFormatLevel(t *testing.T) {
	if got := FormatLevel(nil); got != "none" {
		t.Fatalf("expected none, got %q", got)
	}

	level := 49250.0
	if got := FormatLevel(&level); got != "49250" {
		t.Fatalf("expected 49250, got %q", got)
	}

	fractional := 50575.5
	if got := FormatLevel(&fractional); got != "50575.5" {
		t.Fatalf("expected 50575.5, got %q", got)
	}
}

func TestPortfolioSummaryString(t *testing.T) {
	sl := 50000.0
	summary := PortfolioSummary{
		Cash:     10287.5,
		Equity:   10287.5,
		TotalPnl: 287.5,
		PnlPct:   2.88,
		Position: PositionSnapshot{
			Side:       PositionSideLong,
			Size:       0.5,
			EntryPrice: 50000,
			StopLoss:   &sl,
		},
	}

	want := "Equity=10287.50 Cash=10287.50 PnL=287.50 (2.88%). Pos=LONG size=0.50000000 entry=50000.00 SL=50000 TP=none"
	if got := summary.String(); got != want {
		t.Fatalf("unexpected summary line:\n got %q\nwant %q", got, want)
	}
}
