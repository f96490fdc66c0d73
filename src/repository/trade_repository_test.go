package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"papertrader/src/model"
)

// newLedgerDB opens a private in-memory ledger with the production schema.
// The pool is pinned to one connection so the shared-cache database lives
// for the whole test.
func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite ledger: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Trade{},
		&model.TradeEvent{},
		&model.StrategyPerformance{},
		&model.PaperOrder{},
		&model.Exception{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}

func openTradeFixture(tradeID, strategy string, side string, entryPrice, quantity float64, entryTime time.Time) *model.Trade {
	sl := entryPrice - 750
	return &model.Trade{
		TradeID:      tradeID,
		Strategy:     strategy,
		ProductID:    "BTC-USD",
		Side:         side,
		EntryPrice:   entryPrice,
		Quantity:     quantity,
		EntryTime:    entryTime,
		EntryOrderID: "paper_entry_abcdef123456",
		Status:       model.TradeStatusOpen,
		Context: model.TradeContext{
			Atr:      ptrFloat(500),
			StopLoss: &sl,
			Side:     "LONG",
		},
	}
}

func closedTradeFixture(tradeID, strategy string, pnl, fees float64, entryTime time.Time) *model.Trade {
	exitTime := entryTime.Add(time.Hour)
	exitPrice := 50000.0
	return &model.Trade{
		TradeID:     tradeID,
		Strategy:    strategy,
		ProductID:   "BTC-USD",
		Side:        model.TradeSideBuy,
		EntryPrice:  50000,
		Quantity:    0.5,
		EntryTime:   entryTime,
		ExitPrice:   &exitPrice,
		ExitTime:    &exitTime,
		FeesPaid:    fees,
		RealizedPnl: &pnl,
		Status:      model.TradeStatusClosed,
	}
}

func TestInsertOpenWritesTradeAndEvent(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindOpen(ctx, "BTC-USD", "momentum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.TradeID != trade.TradeID {
		t.Fatalf("expected to find the open trade, got %+v", found)
	}
	if found.Context.StopLoss == nil || *found.Context.StopLoss != 49250 {
		t.Fatalf("expected stop loss 49250 in context, got %v", found.Context.StopLoss)
	}

	events, err := (&TradeEventRepository{}).WithDB(db).FindByTradeID(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Event != model.TradeEventOpened {
		t.Fatalf("expected a single opened event, got %+v", events)
	}
}

func TestInsertOpenDuplicateTradeID(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	first := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50100, 0.4, time.Now().UTC())
	err := repo.InsertOpen(ctx, dup)
	if !errors.Is(err, model.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// the rolled back insert must not leave a second opened event behind
	events, err := (&TradeEventRepository{}).WithDB(db).FindByTradeID(ctx, first.TradeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after rollback, got %d", len(events))
	}
}

func TestUpdateContextMergesAndRecordsRatchet(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.UpdateContext(ctx, trade.TradeID, model.TradeContext{StopLoss: ptrFloat(50000)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := repo.FindOpen(ctx, "BTC-USD", "momentum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Context.StopLoss == nil || *reloaded.Context.StopLoss != 50000 {
		t.Fatalf("expected stop loss 50000, got %v", reloaded.Context.StopLoss)
	}
	// untouched keys keep their values
	if reloaded.Context.Atr == nil || *reloaded.Context.Atr != 500 {
		t.Fatalf("expected atr 500 preserved, got %v", reloaded.Context.Atr)
	}
	if reloaded.Context.Side != "LONG" {
		t.Fatalf("expected side preserved, got %q", reloaded.Context.Side)
	}

	events, err := (&TradeEventRepository{}).WithDB(db).FindByTradeID(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[1].Event != model.TradeEventStopRatchet {
		t.Fatalf("expected opened + stop_ratchet events, got %+v", events)
	}
	if events[1].Message != "Stop moved to 50000.00" {
		t.Fatalf("unexpected ratchet message %q", events[1].Message)
	}
}

func TestUpdateContextNoChangeWritesNoEvent(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.UpdateContext(ctx, trade.TradeID, model.TradeContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := (&TradeEventRepository{}).WithDB(db).FindByTradeID(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the opened event, got %d", len(events))
	}
}

func TestUpdateContextMissingTrade(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)

	err := repo.UpdateContext(context.Background(), "nope", model.TradeContext{StopLoss: ptrFloat(1)})
	if !errors.Is(err, model.ErrTradeNotFound) {
		t.Fatalf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestCloseTradeComputesPnl(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	entryTime := time.Now().UTC().Add(-2 * time.Hour)
	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, entryTime)
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := repo.CloseTrade(ctx, trade.TradeID, 50575, "paper_exit_abcdef123456", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(result.GrossPnl-287.5) > 1e-9 || math.Abs(result.NetPnl-287.5) > 1e-9 {
		t.Fatalf("unexpected pnl %+v", result)
	}
	if math.Abs(result.PnlPercentage-1.15) > 1e-9 {
		t.Fatalf("unexpected pnl percentage %v", result.PnlPercentage)
	}
	if result.HoldingPeriodHours < 1.9 || result.HoldingPeriodHours > 2.1 {
		t.Fatalf("unexpected holding period %v", result.HoldingPeriodHours)
	}

	var stored model.Trade
	if err := db.Where("trade_id = ?", trade.TradeID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload trade: %v", err)
	}
	if stored.Status != model.TradeStatusClosed {
		t.Fatalf("expected closed status, got %q", stored.Status)
	}
	if stored.ExitPrice == nil || *stored.ExitPrice != 50575 {
		t.Fatalf("expected exit price 50575, got %v", stored.ExitPrice)
	}
	if stored.ExitOrderID == nil || *stored.ExitOrderID != "paper_exit_abcdef123456" {
		t.Fatalf("expected exit order id, got %v", stored.ExitOrderID)
	}
	if stored.RealizedPnl == nil || math.Abs(*stored.RealizedPnl-287.5) > 1e-9 {
		t.Fatalf("expected realized pnl 287.50, got %v", stored.RealizedPnl)
	}

	events, err := (&TradeEventRepository{}).WithDB(db).FindByTradeID(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[1].Event != model.TradeEventClosed {
		t.Fatalf("expected opened + closed events, got %+v", events)
	}
}

func TestCloseTradeShortSide(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideSell, 48000, 0.25, time.Now().UTC())
	trade.Context.Side = "SHORT"
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := repo.CloseTrade(ctx, trade.TradeID, 47000, "paper_exit_abcdef123456", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// short profits when price falls: (48000-47000)*0.25
	if math.Abs(result.NetPnl-250) > 1e-9 {
		t.Fatalf("expected net pnl 250, got %v", result.NetPnl)
	}
}

func TestCloseTradeFeesReplaceEntryFees(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := repo.CloseTrade(ctx, trade.TradeID, 50575, "paper_exit_abcdef123456", 1.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(result.NetPnl-286.25) > 1e-9 {
		t.Fatalf("expected net pnl 286.25, got %v", result.NetPnl)
	}

	var stored model.Trade
	if err := db.Where("trade_id = ?", trade.TradeID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload trade: %v", err)
	}
	if math.Abs(stored.FeesPaid-1.25) > 1e-9 {
		t.Fatalf("expected fees_paid 1.25, got %v", stored.FeesPaid)
	}
}

func TestCloseTradeTwiceReturnsAlreadyClosed(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.CloseTrade(ctx, trade.TradeID, 50575, "paper_exit_abcdef123456", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := repo.CloseTrade(ctx, trade.TradeID, 50600, "paper_exit_bbbbbb111111", 0)
	if !errors.Is(err, model.ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestCloseTradeMissingTrade(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)

	_, err := repo.CloseTrade(context.Background(), "nope", 50000, "paper_exit_abcdef123456", 0)
	if !errors.Is(err, model.ErrTradeNotFound) {
		t.Fatalf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestCloseTradeRecomputesStrategyAggregate(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	trade := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.CloseTrade(ctx, trade.TradeID, 50575, "paper_exit_abcdef123456", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	perf, err := (&PerformanceRepository{}).WithDB(db).FindByStrategy(ctx, "momentum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perf == nil {
		t.Fatal("expected an aggregate row after close")
	}
	if perf.TotalTrades != 1 || perf.WinningTrades != 1 {
		t.Fatalf("unexpected aggregate %+v", perf)
	}
	if math.Abs(perf.TotalPnl-287.5) > 1e-9 {
		t.Fatalf("expected total pnl 287.50, got %v", perf.TotalPnl)
	}
}

func TestFindOpenPrefersStrategyThenFallsBack(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	older := openTradeFixture("scalper_BTC-USD_20250115_090000", "scalper", model.TradeSideBuy, 49000, 0.2, time.Now().UTC().Add(-time.Hour))
	newer := openTradeFixture("momentum_BTC-USD_20250115_100000", "momentum", model.TradeSideBuy, 50000, 0.5, time.Now().UTC())
	if err := repo.InsertOpen(ctx, older); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.InsertOpen(ctx, newer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the exact strategy wins even when its trade is older
	found, err := repo.FindOpen(ctx, "BTC-USD", "scalper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.TradeID != older.TradeID {
		t.Fatalf("expected the scalper trade, got %+v", found)
	}

	// an unknown strategy falls back to any open trade on the product
	found, err = repo.FindOpen(ctx, "BTC-USD", "news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.TradeID != newer.TradeID {
		t.Fatalf("expected fallback to the newest open trade, got %+v", found)
	}

	// nothing open on another product
	found, err = repo.FindOpen(ctx, "ETH-USD", "momentum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for a flat product, got %+v", found)
	}
}

func TestRecentTradesFiltersAndLimits(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour)
	if err := db.Create(closedTradeFixture("momentum_BTC-USD_20250115_090000", "momentum", 100, 0, base)).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(closedTradeFixture("scalper_BTC-USD_20250115_100000", "scalper", -50, 0, base.Add(time.Hour))).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(closedTradeFixture("momentum_BTC-USD_20250115_110000", "momentum", 200, 0, base.Add(2*time.Hour))).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	trades, err := repo.RecentTrades(ctx, "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "momentum_BTC-USD_20250115_110000" {
		t.Fatalf("expected newest first, got %+v", trades[0])
	}

	trades, err = repo.RecentTrades(ctx, "momentum", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 momentum trades, got %d", len(trades))
	}
	for _, tr := range trades {
		if tr.Strategy != "momentum" {
			t.Fatalf("unexpected strategy in filtered result: %+v", tr)
		}
	}
}

func TestSumRealizedPnlScopes(t *testing.T) {
	db := newLedgerDB(t)
	repo := (&TradeRepository{}).WithDB(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour)
	if err := db.Create(closedTradeFixture("momentum_BTC-USD_20250115_090000", "momentum", 100, 0, base)).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(closedTradeFixture("scalper_BTC-USD_20250115_100000", "scalper", 200, 0, base.Add(time.Hour))).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	// open exposure never counts toward realized pnl
	if err := repo.InsertOpen(ctx, openTradeFixture("momentum_BTC-USD_20250115_110000", "momentum", model.TradeSideBuy, 50000, 0.5, base.Add(2*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total, err := repo.SumRealizedPnl(ctx, "momentum", "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("expected strategy sum 100, got %v", total)
	}

	total, err = repo.SumRealizedPnlForProduct(ctx, "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(total-300) > 1e-9 {
		t.Fatalf("expected product sum 300, got %v", total)
	}

	total, err = repo.SumRealizedPnl(ctx, "news", "BTC-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 for unknown strategy, got %v", total)
	}
}

func ptrFloat(val float64) *float64 {
	return &val
}
