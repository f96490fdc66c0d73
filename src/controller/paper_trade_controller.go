package controller

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/database"
	"papertrader/src/externalmodel"
	"papertrader/src/model"
	"papertrader/src/repository"
	"papertrader/src/risk"
	"papertrader/src/tp_sl"
	"papertrader/src/utils"
)

type tradeRepository interface {
	InsertOpen(ctx context.Context, trade *model.Trade) error
	UpdateContext(ctx context.Context, tradeID string, patch model.TradeContext) error
	CloseTrade(ctx context.Context, tradeID string, exitPrice float64, exitOrderID string, fees float64) (*model.CloseResult, error)
	FindOpen(ctx context.Context, productID string, strategy string) (*model.Trade, error)
	SumRealizedPnl(ctx context.Context, strategy string, productID string) (float64, error)
	SumRealizedPnlForProduct(ctx context.Context, productID string) (float64, error)
}

type paperOrderRepository interface {
	Create(ctx context.Context, order *model.PaperOrder) error
}

type exceptionRepository interface {
	Create(ctx context.Context, exception *model.Exception) error
}

type signalSnapshotRepository interface {
	LatestForProduct(ctx context.Context, productID string) (*externalmodel.SignalSnapshot, error)
}

type ohlcvRepository interface {
	LatestATR(ctx context.Context, symbol string, at time.Time, interval time.Duration, period int) (float64, bool, error)
}

var (
	newTradeRepo = func() tradeRepository {
		return repository.NewTradeRepository()
	}
	newPaperOrderRepo = func() paperOrderRepository {
		return repository.NewPaperOrderRepository()
	}
	newExceptionRepo = func() exceptionRepository {
		return repository.NewExceptionRepository()
	}
	newSignalSnapshotRepo = func() signalSnapshotRepository {
		if database.ReadOnlyDB == nil {
			return nil
		}
		return repository.NewSignalSnapshotRepository()
	}
	newOHLCVRepo = func() ohlcvRepository {
		return repository.NewOHLCVRepository()
	}
	nowFunc = func() time.Time { return time.Now().UTC() }
)

// candle window used when the ATR has to be computed locally
const (
	atrCandleInterval = 15 * time.Minute
	atrCandlePeriod   = 14
)

// OpenRequest carries everything the caller may supply for a new position.
// Exactly one of Size or RiskUSD must be set; the rest is optional.
type OpenRequest struct {
	Side             string   `json:"side"`
	Price            *float64 `json:"price"`
	Size             *float64 `json:"size,omitempty"`
	RiskUSD          *float64 `json:"risk_usd,omitempty"`
	StopLoss         *float64 `json:"sl,omitempty"`
	TakeProfit       *float64 `json:"tp,omitempty"`
	Atr              *float64 `json:"atr,omitempty"`
	MoveToBEAtr      *float64 `json:"move_to_be_atr,omitempty"`
	TrailStartAtr    *float64 `json:"trail_start_atr,omitempty"`
	TrailDistanceAtr *float64 `json:"trail_distance_atr,omitempty"`
	ProductID        string   `json:"product_id,omitempty"`
	Strategy         string   `json:"strategy,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

type CloseRequest struct {
	Price     *float64 `json:"price"`
	ProductID string   `json:"product_id,omitempty"`
	Strategy  string   `json:"strategy,omitempty"`
}

type ReverseRequest struct {
	Side       string   `json:"side"`
	Price      *float64 `json:"price"`
	Size       *float64 `json:"size,omitempty"`
	RiskUSD    *float64 `json:"risk_usd,omitempty"`
	StopLoss   *float64 `json:"sl,omitempty"`
	TakeProfit *float64 `json:"tp,omitempty"`
	Atr        *float64 `json:"atr,omitempty"`
	ProductID  string   `json:"product_id,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

type TickRequest struct {
	Price     *float64 `json:"price"`
	ProductID string   `json:"product_id,omitempty"`
	Strategy  string   `json:"strategy,omitempty"`
}

type SummaryRequest struct {
	MarkPrice       *float64 `json:"mark_price,omitempty"`
	StartingBalance *float64 `json:"starting_balance,omitempty"`
	ProductID       string   `json:"product_id,omitempty"`
	Strategy        string   `json:"strategy,omitempty"`
}

// OpenPosition opens a new paper trade and returns a confirmation string.
// Validation failures and ledger errors come back as an "Error: ..." string
// plus the typed error, so callers can branch without parsing the message.
func OpenPosition(ctx context.Context, req OpenRequest) (string, error) {
	logger.Info("starting paper open flow")

	config := GetConfig()
	applyKeyDefaults(&req.ProductID, &req.Strategy, config)

	tradeRepo := newTradeRepo()
	orderRepo := newPaperOrderRepo()
	exceptionRepo := newExceptionRepo()

	side := strings.ToUpper(strings.TrimSpace(req.Side))
	if side != model.PositionSideLong && side != model.PositionSideShort {
		err := fmt.Errorf("%w: side must be LONG or SHORT", model.ErrInvalidInput)
		return "Error: side must be LONG or SHORT", err
	}
	if req.Price == nil || *req.Price <= 0 {
		err := fmt.Errorf("%w: price is required for open actions", model.ErrInvalidInput)
		return "Error: price is required for open actions", err
	}
	price := *req.Price

	// ------------------------------------------------------------------
	// 1) Resolve the ATR (request -> signal snapshot -> candles) and size
	// ------------------------------------------------------------------
	atr := resolveATR(ctx, req.ProductID, req.Atr)

	size, err := ensureSize(req.Size, req.RiskUSD, price, atr)
	if err != nil {
		return "Error: provide either size or risk_usd for sizing", err
	}

	// trailing parameters are fixed at open so later ticks replay the same rules
	mbe := valueOr(req.MoveToBEAtr, tp_sl.DefaultTrailingParams.MoveToBEAtr)
	tstart := valueOr(req.TrailStartAtr, tp_sl.DefaultTrailingParams.TrailStartAtr)
	tdist := valueOr(req.TrailDistanceAtr, tp_sl.DefaultTrailingParams.TrailDistanceAtr)

	// ------------------------------------------------------------------
	// 2) Write the open trade row with its protective context
	// ------------------------------------------------------------------
	now := nowFunc()
	trade := &model.Trade{
		TradeID:      newTradeID(req.Strategy, req.ProductID, now),
		Strategy:     req.Strategy,
		ProductID:    req.ProductID,
		Side:         rowSideFor(side),
		EntryPrice:   price,
		Quantity:     size,
		EntryTime:    now,
		EntryOrderID: orderToken("paper_entry_", 12),
		Status:       model.TradeStatusOpen,
		Context: model.TradeContext{
			Atr:              atr,
			StopLoss:         req.StopLoss,
			TakeProfit:       req.TakeProfit,
			Side:             side,
			MoveToBEAtr:      &mbe,
			TrailStartAtr:    &tstart,
			TrailDistanceAtr: &tdist,
		},
		Notes: req.Notes,
	}

	if err := tradeRepo.InsertOpen(ctx, trade); err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.InsertOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
			"side":       side,
		})
		return fmt.Sprintf("Error: failed to open position: %v", err), err
	}

	logger.WithFields(map[string]interface{}{
		"trade_id":   trade.TradeID,
		"product_id": req.ProductID,
		"strategy":   req.Strategy,
		"side":       side,
		"size":       size,
		"price":      price,
	}).Info("paper position opened")

	// ------------------------------------------------------------------
	// 3) Record the simulated entry fill
	// ------------------------------------------------------------------
	recordPaperOrder(ctx, orderRepo, exceptionRepo, &model.PaperOrder{
		OrderID:   trade.EntryOrderID,
		TradeID:   trade.TradeID,
		Strategy:  req.Strategy,
		ProductID: req.ProductID,
		Side:      trade.Side,
		Quantity:  size,
		Price:     price,
		Reason:    model.PaperOrderReasonEntry,
	})

	return fmt.Sprintf("Opened %s size=%.8f @ %.2f SL=%s TP=%s",
		side, size, price, model.FormatLevel(req.StopLoss), model.FormatLevel(req.TakeProfit)), nil
}

// ClosePosition closes the open trade for the key at the given price. The
// open-trade lookup falls back from (product, strategy) to any open trade on
// the product.
func ClosePosition(ctx context.Context, req CloseRequest) (string, error) {
	logger.Info("starting paper close flow")

	config := GetConfig()
	applyKeyDefaults(&req.ProductID, &req.Strategy, config)

	tradeRepo := newTradeRepo()
	orderRepo := newPaperOrderRepo()
	exceptionRepo := newExceptionRepo()

	if req.Price == nil || *req.Price <= 0 {
		err := fmt.Errorf("%w: price is required for close", model.ErrInvalidInput)
		return "Error: price is required for close", err
	}
	price := *req.Price

	open, err := tradeRepo.FindOpen(ctx, req.ProductID, req.Strategy)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.FindOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
		})
		return fmt.Sprintf("Error: failed to look up open position: %v", err), err
	}
	if open == nil {
		return "No open position to close", nil
	}

	token := orderToken("paper_exit_", 12)
	res, err := tradeRepo.CloseTrade(ctx, open.TradeID, price, token, 0)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.CloseTrade", "error", err, map[string]interface{}{
			"trade_id": open.TradeID,
			"price":    price,
		})
		return fmt.Sprintf("Error closing trade: %v", err), err
	}

	recordPaperOrder(ctx, orderRepo, exceptionRepo, &model.PaperOrder{
		OrderID:   token,
		TradeID:   open.TradeID,
		Strategy:  open.Strategy,
		ProductID: open.ProductID,
		Side:      closeRowSideFor(open.Side),
		Quantity:  open.Quantity,
		Price:     price,
		Reason:    model.PaperOrderReasonExit,
	})

	return fmt.Sprintf("Closed position. Realized PnL=%.2f", res.NetPnl), nil
}

// ReversePosition closes any open trade for the key at the given price (a
// direct market close that ignores its stop and target) and opens the
// opposite side. The two ledger writes are sequential, not atomic; a close
// failure aborts before the new side is opened.
func ReversePosition(ctx context.Context, req ReverseRequest) (string, error) {
	logger.Info("starting paper reverse flow")

	config := GetConfig()
	applyKeyDefaults(&req.ProductID, &req.Strategy, config)

	tradeRepo := newTradeRepo()
	orderRepo := newPaperOrderRepo()
	exceptionRepo := newExceptionRepo()

	side := strings.ToUpper(strings.TrimSpace(req.Side))
	if side != model.PositionSideLong && side != model.PositionSideShort {
		err := fmt.Errorf("%w: side must be LONG or SHORT", model.ErrInvalidInput)
		return "Error: side must be LONG or SHORT", err
	}
	if req.Price == nil || *req.Price <= 0 {
		err := fmt.Errorf("%w: price is required for reverse", model.ErrInvalidInput)
		return "Error: price is required for reverse", err
	}
	price := *req.Price

	atr := resolveATR(ctx, req.ProductID, req.Atr)

	size, err := ensureSize(req.Size, req.RiskUSD, price, atr)
	if err != nil {
		return "Error: provide either size or risk_usd for sizing", err
	}

	// ------------------------------------------------------------------
	// 1) Exit the existing position if any
	// ------------------------------------------------------------------
	open, err := tradeRepo.FindOpen(ctx, req.ProductID, req.Strategy)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.FindOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
		})
		return fmt.Sprintf("Error: failed to look up open position: %v", err), err
	}
	if open != nil {
		token := orderToken("paper_reverse_exit_", 8)
		if _, err := tradeRepo.CloseTrade(ctx, open.TradeID, price, token, 0); err != nil {
			Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.CloseTrade", "error", err, map[string]interface{}{
				"trade_id": open.TradeID,
				"price":    price,
			})
			return fmt.Sprintf("Error closing trade: %v", err), err
		}

		recordPaperOrder(ctx, orderRepo, exceptionRepo, &model.PaperOrder{
			OrderID:   token,
			TradeID:   open.TradeID,
			Strategy:  open.Strategy,
			ProductID: open.ProductID,
			Side:      closeRowSideFor(open.Side),
			Quantity:  open.Quantity,
			Price:     price,
			Reason:    model.PaperOrderReasonReverseExit,
		})
	}

	// ------------------------------------------------------------------
	// 2) Enter the new side. No trailing params here: they default again
	//    on the next tick.
	// ------------------------------------------------------------------
	now := nowFunc()
	trade := &model.Trade{
		TradeID:      newTradeID(req.Strategy, req.ProductID, now),
		Strategy:     req.Strategy,
		ProductID:    req.ProductID,
		Side:         rowSideFor(side),
		EntryPrice:   price,
		Quantity:     size,
		EntryTime:    now,
		EntryOrderID: orderToken("paper_entry_", 12),
		Status:       model.TradeStatusOpen,
		Context: model.TradeContext{
			Atr:        atr,
			StopLoss:   req.StopLoss,
			TakeProfit: req.TakeProfit,
			Side:       side,
		},
		Notes: req.Notes,
	}

	if err := tradeRepo.InsertOpen(ctx, trade); err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.InsertOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
			"side":       side,
		})
		return fmt.Sprintf("Error: failed to open position: %v", err), err
	}

	recordPaperOrder(ctx, orderRepo, exceptionRepo, &model.PaperOrder{
		OrderID:   trade.EntryOrderID,
		TradeID:   trade.TradeID,
		Strategy:  req.Strategy,
		ProductID: req.ProductID,
		Side:      trade.Side,
		Quantity:  size,
		Price:     price,
		Reason:    model.PaperOrderReasonEntry,
	})

	return fmt.Sprintf("Reversed to %s size=%.8f @ %.2f", side, size, price), nil
}

// OnPrice runs one price observation through stop management for the open
// trade. Any ratcheted stop is persisted before the exit decision is acted
// on, so a crash in between leaves the position open with its stop intact.
func OnPrice(ctx context.Context, req TickRequest) (string, error) {
	config := GetConfig()
	applyKeyDefaults(&req.ProductID, &req.Strategy, config)

	tradeRepo := newTradeRepo()
	orderRepo := newPaperOrderRepo()
	exceptionRepo := newExceptionRepo()

	if req.Price == nil || *req.Price <= 0 {
		err := fmt.Errorf("%w: price is required for on_price", model.ErrInvalidInput)
		return "Error: price is required for on_price", err
	}
	price := *req.Price

	open, err := tradeRepo.FindOpen(ctx, req.ProductID, req.Strategy)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.FindOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
		})
		return fmt.Sprintf("Error: failed to look up open position: %v", err), err
	}
	if open == nil {
		return "No open position to manage", nil
	}

	pos := model.PositionFromTrade(open)
	params := trailingParamsFromContext(open.Context)

	res := tp_sl.EvaluateTick(pos, params, price)

	// ------------------------------------------------------------------
	// 1) Persist the ratcheted stop before acting on any exit
	// ------------------------------------------------------------------
	if res.StopMoved && res.StopLoss != nil {
		if err := tradeRepo.UpdateContext(ctx, open.TradeID, model.TradeContext{StopLoss: res.StopLoss}); err != nil {
			Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.UpdateContext", "error", err, map[string]interface{}{
				"trade_id": open.TradeID,
				"stop":     *res.StopLoss,
			})
			return fmt.Sprintf("Error: failed to persist stop update: %v", err), err
		}

		logger.WithFields(map[string]interface{}{
			"trade_id": open.TradeID,
			"stop":     *res.StopLoss,
			"price":    price,
		}).Info("stop ratcheted")
	}

	// ------------------------------------------------------------------
	// 2) Act on a triggered exit at the breached level
	// ------------------------------------------------------------------
	if res.Exit != nil {
		token := orderToken("paper_auto_exit_", 8)
		closeRes, err := tradeRepo.CloseTrade(ctx, open.TradeID, res.Exit.Level, token, 0)
		if err != nil {
			Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.CloseTrade", "error", err, map[string]interface{}{
				"trade_id": open.TradeID,
				"trigger":  string(res.Exit.Trigger),
				"level":    res.Exit.Level,
			})
			return fmt.Sprintf("Error closing trade: %v", err), err
		}

		recordPaperOrder(ctx, orderRepo, exceptionRepo, &model.PaperOrder{
			OrderID:   token,
			TradeID:   open.TradeID,
			Strategy:  open.Strategy,
			ProductID: open.ProductID,
			Side:      closeRowSideFor(open.Side),
			Quantity:  open.Quantity,
			Price:     res.Exit.Level,
			Reason:    model.PaperOrderReasonAutoExit,
		})

		logger.WithFields(map[string]interface{}{
			"trade_id": open.TradeID,
			"trigger":  string(res.Exit.Trigger),
			"level":    res.Exit.Level,
			"net_pnl":  closeRes.NetPnl,
		}).Info("protective exit executed")

		return fmt.Sprintf("Exit event at %.2f. Realized PnL=%.2f", res.Exit.Level, closeRes.NetPnl), nil
	}

	return "No exit. Position managed.", nil
}

// Summary builds the equity snapshot for the key. Realized PnL prefers the
// (strategy, product) sum and falls back to the product-wide sum when that is
// exactly zero, mirroring the find_open fallback for reads.
func Summary(ctx context.Context, req SummaryRequest) (*model.PortfolioSummary, error) {
	config := GetConfig()
	applyKeyDefaults(&req.ProductID, &req.Strategy, config)

	starting := config.StartingBalance
	if req.StartingBalance != nil {
		starting = *req.StartingBalance
	}

	tradeRepo := newTradeRepo()
	exceptionRepo := newExceptionRepo()

	realized, err := tradeRepo.SumRealizedPnl(ctx, req.Strategy, req.ProductID)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.SumRealizedPnl", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
		})
		return nil, err
	}
	if realized == 0.0 {
		realized, err = tradeRepo.SumRealizedPnlForProduct(ctx, req.ProductID)
		if err != nil {
			Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.SumRealizedPnlForProduct", "error", err, map[string]interface{}{
				"product_id": req.ProductID,
			})
			return nil, err
		}
	}

	open, err := tradeRepo.FindOpen(ctx, req.ProductID, req.Strategy)
	if err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "tradeRepo.FindOpen", "error", err, map[string]interface{}{
			"product_id": req.ProductID,
			"strategy":   req.Strategy,
		})
		return nil, err
	}

	unrealized := 0.0
	snapshot := model.PositionSnapshot{Side: model.PositionSideFlat}
	if open != nil {
		pos := model.PositionFromTrade(open)
		mark := open.EntryPrice
		if req.MarkPrice != nil {
			mark = *req.MarkPrice
		}
		if pos.Side == model.PositionSideLong {
			unrealized = (mark - open.EntryPrice) * open.Quantity
		} else {
			unrealized = (open.EntryPrice - mark) * open.Quantity
		}
		snapshot = model.PositionSnapshot{
			Side:       pos.Side,
			Size:       open.Quantity,
			EntryPrice: open.EntryPrice,
			StopLoss:   pos.StopLoss,
			TakeProfit: pos.TakeProfit,
		}
	}

	cash := starting + realized
	equity := cash + unrealized
	totalPnl := equity - starting
	pct := 0.0
	if starting != 0 {
		pct = totalPnl / starting * 100.0
	}

	return &model.PortfolioSummary{
		Strategy:        req.Strategy,
		ProductID:       req.ProductID,
		StartingBalance: starting,
		RealizedPnl:     realized,
		UnrealizedPnl:   unrealized,
		Cash:            cash,
		Equity:          equity,
		TotalPnl:        totalPnl,
		PnlPct:          pct,
		Position:        snapshot,
	}, nil
}

// resolveATR returns the first usable volatility estimate: the caller's
// value, then the latest signal snapshot, then an ATR computed from recent
// candles. Nil when every source comes up empty.
func resolveATR(ctx context.Context, productID string, requested *float64) *float64 {
	if requested != nil && *requested > 0 {
		return requested
	}

	if snapRepo := newSignalSnapshotRepo(); snapRepo != nil {
		snap, err := snapRepo.LatestForProduct(ctx, productID)
		if err != nil {
			logger.WithError(err).WithField("product_id", productID).
				Warn("signal snapshot lookup failed, falling back to candle ATR")
		} else if snap != nil && snap.Atr != nil && *snap.Atr > 0 {
			return snap.Atr
		}
	}

	atr, ok, err := newOHLCVRepo().LatestATR(ctx, ProductToSymbol(productID), nowFunc(), atrCandleInterval, atrCandlePeriod)
	if err != nil {
		logger.WithError(err).WithField("product_id", productID).
			Warn("candle ATR computation failed")
		return nil
	}
	if !ok || atr <= 0 {
		return nil
	}
	return &atr
}

// ensureSize picks the explicit size when given, otherwise derives it from
// the risk budget.
func ensureSize(size, riskUSD *float64, price float64, atr *float64) (float64, error) {
	if size != nil {
		return *size, nil
	}
	if riskUSD == nil {
		return 0, fmt.Errorf("%w: provide either size or risk_usd for sizing", model.ErrInvalidInput)
	}
	return risk.SizeFromRisk(*riskUSD, price, atr, risk.DefaultMinVolFrac), nil
}

func trailingParamsFromContext(ctx model.TradeContext) tp_sl.TrailingParams {
	params := tp_sl.DefaultTrailingParams
	if ctx.MoveToBEAtr != nil {
		params.MoveToBEAtr = *ctx.MoveToBEAtr
	}
	if ctx.TrailStartAtr != nil {
		params.TrailStartAtr = *ctx.TrailStartAtr
	}
	if ctx.TrailDistanceAtr != nil {
		params.TrailDistanceAtr = *ctx.TrailDistanceAtr
	}
	return params
}

func applyKeyDefaults(productID, strategy *string, config Config) {
	if strings.TrimSpace(*productID) == "" {
		*productID = config.PaperProductID
	}
	if strings.TrimSpace(*strategy) == "" {
		*strategy = config.PaperStrategy
	}
}

// newTradeID builds the ledger key for a position lifecycle. Second
// resolution means a same-second reopen collides, which the ledger reports
// as a duplicate instead of overwriting.
func newTradeID(strategy, productID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", strategy, productID, utils.TimestampToken(at))
}

func orderToken(prefix string, n int) string {
	id := uuid.New()
	return prefix + hex.EncodeToString(id[:])[:n]
}

func rowSideFor(side string) string {
	if side == model.PositionSideShort {
		return model.TradeSideSell
	}
	return model.TradeSideBuy
}

func closeRowSideFor(rowSide string) string {
	if rowSide == model.TradeSideBuy {
		return model.TradeSideSell
	}
	return model.TradeSideBuy
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

// recordPaperOrder persists the audit row for a simulated fill. Audit
// failures are captured but never fail the trading operation itself.
func recordPaperOrder(ctx context.Context, orderRepo paperOrderRepository, exceptionRepo exceptionRepository, order *model.PaperOrder) {
	if err := orderRepo.Create(ctx, order); err != nil {
		Capture(ctx, exceptionRepo, "PaperTradeController", "controller", "paperOrderRepo.Create", "error", err, map[string]interface{}{
			"order_id": order.OrderID,
			"trade_id": order.TradeID,
			"reason":   order.Reason,
		})
	}
}
