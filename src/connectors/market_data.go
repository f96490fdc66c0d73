// REST MARKET DATA CLIENT FOR COINBASE-STYLE EXCHANGES
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// Ticker is the subset of the product ticker payload the trader consumes.
type Ticker struct {
	TradeID int64  `json:"trade_id"`
	Price   string `json:"price"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Volume  string `json:"volume"`
	Time    string `json:"time"`
}

// MarketDataClient reads public market data endpoints. No credentials are
// involved, paper trading never places real orders.
type MarketDataClient struct {
	baseURL string
	http    *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewMarketDataClient(baseURL string) *MarketDataClient {
	retryCount := defaultRetryAttempts - 1

	if baseURL == "" {
		baseURL = "https://api.exchange.coinbase.com"
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &MarketDataClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// GetTicker fetches the current product ticker, e.g. for "BTC-USD".
func (c *MarketDataClient) GetTicker(productID string) (*Ticker, error) {
	resp, err := c.http.R().
		Get(fmt.Sprintf("/products/%s/ticker", productID))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var tk Ticker
	if err := json.Unmarshal(resp.Body(), &tk); err != nil {
		return nil, err
	}

	return &tk, nil
}

// LastPrice returns the latest traded price for the product.
func (c *MarketDataClient) LastPrice(productID string) (float64, error) {
	tk, err := c.GetTicker(productID)
	if err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(tk.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid price for %s: %q", productID, tk.Price)
	}

	return price, nil
}
