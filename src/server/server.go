package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/auth"
	"papertrader/src/handler"
)

// StartServer boots the trading API and blocks until SIGINT or SIGTERM.
func StartServer(port string) {
	r := newRouter()

	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// newRouter assembles the route table. Everything except the healthcheck
// sits behind the API token middleware.
func newRouter() chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write failed")
		}
	})

	// Trading and reporting routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAPIToken())

		r.Post("/paper/open", handler.DefaultOpenPositionHandler())
		r.Post("/paper/close", handler.DefaultClosePositionHandler())
		r.Post("/paper/reverse", handler.DefaultReversePositionHandler())
		r.Post("/paper/tick", handler.DefaultTickHandler())
		r.Get("/paper/summary", handler.DefaultSummaryHandler())

		r.Get("/trades/recent", handler.DefaultRecentTradesHandler())
		r.Get("/trades/{tradeID}/events", handler.DefaultTradeEventsHandler())
		r.Get("/trades/{tradeID}/orders", handler.DefaultTradeFillsHandler())

		r.Get("/performance", handler.DefaultPerformanceListHandler())
		r.Get("/performance/overall", handler.DefaultOverallPerformanceHandler())
		r.Get("/performance/{strategy}", handler.DefaultStrategyPerformanceHandler())
	})

	return r
}
