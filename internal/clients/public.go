// Package clients builds unauthenticated exchange clients for public market data.
package clients

import (
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/hirokisan/bybit/v2"
)

// NewBinancePublicClient creates a Binance client without credentials.
// A positive timeout bounds every request.
func NewBinancePublicClient(timeout time.Duration) *binance.Client {
	client := binance.NewClient("", "")
	if timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: timeout}
	}
	return client
}

// NewBybitPublicClient creates a Bybit client without credentials.
func NewBybitPublicClient() *bybit.Client {
	return bybit.NewClient()
}
