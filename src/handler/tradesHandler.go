package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/auth"
	"papertrader/src/controller"
	"papertrader/src/model"
	"papertrader/src/repository"
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// statusForError maps the ledger error taxonomy onto HTTP statuses. The
// response body still carries the operation message, the status only gives
// API clients something to branch on.
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTradeNotFound), errors.Is(err, model.ErrNoOpenPosition):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateKey), errors.Is(err, model.ErrAlreadyClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type openPositionFunc func(ctx context.Context, req controller.OpenRequest) (string, error)

// OpenPositionHandler opens a paper position from a JSON request body and
// answers with the confirmation message.
func OpenPositionHandler(open openPositionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload controller.OpenRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid open position payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		msg, err := open(r.Context(), payload)
		if err != nil {
			logger.WithError(err).Error("open position failed")
			respondJSON(w, statusForError(err), messageResponse{Message: msg})
			return
		}

		respondJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

// DefaultOpenPositionHandler wires the handler to the controller.
func DefaultOpenPositionHandler() http.HandlerFunc {
	return OpenPositionHandler(controller.OpenPosition)
}

type closePositionFunc func(ctx context.Context, req controller.CloseRequest) (string, error)

func ClosePositionHandler(close closePositionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload controller.CloseRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid close position payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		msg, err := close(r.Context(), payload)
		if err != nil {
			logger.WithError(err).Error("close position failed")
			respondJSON(w, statusForError(err), messageResponse{Message: msg})
			return
		}

		respondJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

func DefaultClosePositionHandler() http.HandlerFunc {
	return ClosePositionHandler(controller.ClosePosition)
}

type reversePositionFunc func(ctx context.Context, req controller.ReverseRequest) (string, error)

func ReversePositionHandler(reverse reversePositionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload controller.ReverseRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid reverse position payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		msg, err := reverse(r.Context(), payload)
		if err != nil {
			logger.WithError(err).Error("reverse position failed")
			respondJSON(w, statusForError(err), messageResponse{Message: msg})
			return
		}

		respondJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

func DefaultReversePositionHandler() http.HandlerFunc {
	return ReversePositionHandler(controller.ReversePosition)
}

type tickFunc func(ctx context.Context, req controller.TickRequest) (string, error)

// TickHandler pushes one price observation through stop management.
func TickHandler(tick tickFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload controller.TickRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid tick payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		msg, err := tick(r.Context(), payload)
		if err != nil {
			logger.WithError(err).Error("tick failed")
			respondJSON(w, statusForError(err), messageResponse{Message: msg})
			return
		}

		respondJSON(w, http.StatusOK, messageResponse{Message: msg})
	}
}

func DefaultTickHandler() http.HandlerFunc {
	return TickHandler(controller.OnPrice)
}

type summaryFunc func(ctx context.Context, req controller.SummaryRequest) (*model.PortfolioSummary, error)

// SummaryHandler returns the equity snapshot. Optional query parameters:
// mark_price, starting_balance, product_id, strategy.
func SummaryHandler(summarize summaryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		req := controller.SummaryRequest{
			ProductID: r.URL.Query().Get("product_id"),
			Strategy:  r.URL.Query().Get("strategy"),
		}

		if raw := r.URL.Query().Get("mark_price"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				http.Error(w, "invalid mark_price", http.StatusBadRequest)
				return
			}
			req.MarkPrice = &parsed
		}
		if raw := r.URL.Query().Get("starting_balance"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				http.Error(w, "invalid starting_balance", http.StatusBadRequest)
				return
			}
			req.StartingBalance = &parsed
		}

		summary, err := summarize(r.Context(), req)
		if err != nil {
			logger.WithError(err).Error("summary failed")
			respondJSON(w, statusForError(err), messageResponse{Message: "Error: failed to build summary"})
			return
		}

		respondJSON(w, http.StatusOK, summary)
	}
}

func DefaultSummaryHandler() http.HandlerFunc {
	return SummaryHandler(controller.Summary)
}

type recentTradesLister interface {
	RecentTrades(ctx context.Context, strategy string, limit int) ([]model.Trade, error)
}

// RecentTradesHandler lists the latest ledger rows, newest first. Supports
// strategy and limit query parameters.
func RecentTradesHandler(repo recentTradesLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		trades, err := repo.RecentTrades(r.Context(), r.URL.Query().Get("strategy"), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list recent trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, trades)
	}
}

func DefaultRecentTradesHandler() http.HandlerFunc {
	return RecentTradesHandler(repository.NewTradeRepository())
}

type tradeEventLister interface {
	FindByTradeID(ctx context.Context, tradeID string) ([]model.TradeEvent, error)
}

// TradeEventsHandler lists the lifecycle events of one trade.
func TradeEventsHandler(repo tradeEventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tradeID := chi.URLParam(r, "tradeID")
		if tradeID == "" {
			http.Error(w, "missing tradeID", http.StatusBadRequest)
			return
		}

		events, err := repo.FindByTradeID(r.Context(), tradeID)
		if err != nil {
			logger.WithError(err).Error("failed to list trade events")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, events)
	}
}

func DefaultTradeEventsHandler() http.HandlerFunc {
	return TradeEventsHandler(repository.NewTradeEventRepository())
}

type paperOrderLister interface {
	FindByTradeID(ctx context.Context, tradeID string) ([]model.PaperOrder, error)
}

// TradeFillsHandler lists the simulated fills booked for one trade.
func TradeFillsHandler(repo paperOrderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tradeID := chi.URLParam(r, "tradeID")
		if tradeID == "" {
			http.Error(w, "missing tradeID", http.StatusBadRequest)
			return
		}

		fills, err := repo.FindByTradeID(r.Context(), tradeID)
		if err != nil {
			logger.WithError(err).Error("failed to list trade fills")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, fills)
	}
}

func DefaultTradeFillsHandler() http.HandlerFunc {
	return TradeFillsHandler(repository.NewPaperOrderRepository())
}
