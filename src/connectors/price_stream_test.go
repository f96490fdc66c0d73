package connectors

// Test index:
//  1. TestPriceStreamDeliversTicks verifies subscribe payload, frame filtering
//     and callback delivery until the context is cancelled.
//  2. TestPriceStreamServerClose surfaces a read error when the feed drops.
//  3. TestPriceStreamDialError surfaces dial failures.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

type capturedSubscribe struct {
	mu  sync.Mutex
	sub wsSubscribe
}

func (c *capturedSubscribe) set(s wsSubscribe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sub = s
}

func (c *capturedSubscribe) get() wsSubscribe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// buildFeedServer upgrades one connection, records the subscribe payload and
// plays the given frames back to the client.
func buildFeedServer(t *testing.T, captured *capturedSubscribe, frames []string, closeAfter bool) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub wsSubscribe
		if err := json.Unmarshal(msg, &sub); err == nil {
			captured.set(sub)
		}

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}

		if closeAfter {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
			return
		}

		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestPriceStreamDeliversTicks(t *testing.T) {
	captured := &capturedSubscribe{}
	frames := []string{
		`{"type":"subscriptions","channels":[{"name":"ticker","product_ids":["BTC-USD"]}]}`,
		`{"type":"ticker","product_id":"BTC-USD","price":"50000.25"}`,
		`not json at all`,
		`{"type":"heartbeat","sequence":12}`,
		`{"type":"ticker","product_id":"BTC-USD","price":"bogus"}`,
		`{"type":"ticker","product_id":"BTC-USD","price":"50100.50"}`,
	}
	server := buildFeedServer(t, captured, frames, false)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var prices []float64

	stream := NewPriceStream(wsURL(server))
	err := stream.Run(ctx, "BTC-USD", func(productID string, price float64) {
		mu.Lock()
		prices = append(prices, price)
		done := len(prices) == 2
		mu.Unlock()
		if done {
			cancel()
		}
	})
	if err == nil || ctx.Err() == nil {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(prices) != 2 || prices[0] != 50000.25 || prices[1] != 50100.50 {
		t.Fatalf("unexpected prices %v", prices)
	}

	sub := captured.get()
	if sub.Type != "subscribe" {
		t.Fatalf("expected subscribe message, got %+v", sub)
	}
	if len(sub.ProductIDs) != 1 || sub.ProductIDs[0] != "BTC-USD" {
		t.Fatalf("unexpected product ids %v", sub.ProductIDs)
	}
	if len(sub.Channels) != 1 || sub.Channels[0] != "ticker" {
		t.Fatalf("unexpected channels %v", sub.Channels)
	}
}

func TestPriceStreamServerClose(t *testing.T) {
	captured := &capturedSubscribe{}
	frames := []string{
		`{"type":"ticker","product_id":"BTC-USD","price":"50000.25"}`,
	}
	server := buildFeedServer(t, captured, frames, true)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var prices []float64

	stream := NewPriceStream(wsURL(server))
	err := stream.Run(ctx, "BTC-USD", func(productID string, price float64) {
		mu.Lock()
		prices = append(prices, price)
		mu.Unlock()
	})
	if err == nil {
		t.Fatalf("expected read error after server close")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(prices) != 1 || prices[0] != 50000.25 {
		t.Fatalf("unexpected prices %v", prices)
	}
}

func TestPriceStreamDialError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stream := NewPriceStream("ws://127.0.0.1:1/nowhere")
	err := stream.Run(ctx, "BTC-USD", func(string, float64) {})
	if err == nil {
		t.Fatalf("expected dial error")
	}
}
