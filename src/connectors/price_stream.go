package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

type wsSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type wsTicker struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
}

// PriceStream consumes the ticker channel of a Coinbase-style websocket feed
// and hands every price to a callback.
type PriceStream struct {
	url    string
	dialer websocket.Dialer
}

func NewPriceStream(url string) *PriceStream {
	return &PriceStream{
		url: url,
		dialer: websocket.Dialer{
			HandshakeTimeout:  15 * time.Second,
			EnableCompression: true,
			Proxy:             http.ProxyFromEnvironment,
		},
	}
}

// Run subscribes to the product ticker and blocks until the context is done
// or the connection drops. The callback runs on the read loop, so it must
// return quickly.
func (s *PriceStream) Run(ctx context.Context, productID string, onPrice func(productID string, price float64)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("ws dial failed: %w", err)
	}
	defer conn.Close()

	sub := wsSubscribe{
		Type:       "subscribe",
		ProductIDs: []string{productID},
		Channels:   []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("ws subscribe failed: %w", err)
	}

	// ReadMessage blocks, closing the connection is what unblocks it when
	// the context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.WithField("product_id", productID).Info("price stream stopping")
				return ctx.Err()
			}
			return fmt.Errorf("ws read failed: %w", err)
		}

		var tick wsTicker
		if err := json.Unmarshal(msg, &tick); err != nil {
			logger.WithError(err).Debug("skipping unparseable ws frame")
			continue
		}
		if tick.Type != "ticker" || tick.Price == "" {
			continue
		}

		price, err := parsePrice(tick.Price)
		if err != nil {
			logger.WithError(err).WithField("raw", tick.Price).Debug("skipping bad ticker price")
			continue
		}

		onPrice(tick.ProductID, price)
	}
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return price, nil
}
