package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/auth"
	"papertrader/src/model"
	"papertrader/src/repository"
)

type strategyPerformanceFinder interface {
	FindByStrategy(ctx context.Context, strategy string) (*model.StrategyPerformance, error)
}

// StrategyPerformanceHandler returns the aggregate row for one strategy,
// 404 when the strategy has no closed trades yet.
func StrategyPerformanceHandler(repo strategyPerformanceFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		strategy := chi.URLParam(r, "strategy")
		if strategy == "" {
			http.Error(w, "missing strategy", http.StatusBadRequest)
			return
		}

		perf, err := repo.FindByStrategy(r.Context(), strategy)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy performance")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if perf == nil {
			http.Error(w, "no closed trades for strategy", http.StatusNotFound)
			return
		}

		respondJSON(w, http.StatusOK, perf)
	}
}

func DefaultStrategyPerformanceHandler() http.HandlerFunc {
	return StrategyPerformanceHandler(repository.NewPerformanceRepository())
}

type performanceLister interface {
	ListAll(ctx context.Context) ([]model.StrategyPerformance, error)
}

// PerformanceListHandler returns the aggregate rows for every strategy.
func PerformanceListHandler(repo performanceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := repo.ListAll(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list strategy performance")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, rows)
	}
}

func DefaultPerformanceListHandler() http.HandlerFunc {
	return PerformanceListHandler(repository.NewPerformanceRepository())
}

type overallPerformanceFinder interface {
	Overall(ctx context.Context) (*model.PortfolioPerformance, error)
}

// OverallPerformanceHandler rolls every strategy up into one portfolio view,
// 404 until the first trade closes.
func OverallPerformanceHandler(repo overallPerformanceFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		perf, err := repo.Overall(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to compute overall performance")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if perf == nil {
			http.Error(w, "no closed trades", http.StatusNotFound)
			return
		}

		respondJSON(w, http.StatusOK, perf)
	}
}

func DefaultOverallPerformanceHandler() http.HandlerFunc {
	return OverallPerformanceHandler(repository.NewPerformanceRepository())
}
