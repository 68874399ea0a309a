// Package coingecko implements the official-token resolver: a symbol
// is treated as a verified major project when CoinGecko knows it and
// its market cap clears the bar.
package coingecko

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// officialMarketCapFloor: below this a symbol match is meaningless,
// anyone can list a token named ETH.
const officialMarketCapFloor = 50_000_000

const cacheTTL = time.Hour

type cacheEntry struct {
	official bool
	expires  time.Time
}

type Resolver struct {
	baseURL string
	http    *resty.Client
	logger  providers.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewResolver(logger providers.Logger) *Resolver {
	return &Resolver{
		baseURL: defaultBaseURL,
		http:    request.New(10 * time.Second),
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}
}

func (r *Resolver) SetBaseURL(u string) { r.baseURL = u }

type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Symbol        string `json:"symbol"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

type marketEntry struct {
	ID        string  `json:"id"`
	MarketCap float64 `json:"market_cap"`
}

// IsOfficial reports whether the symbol belongs to a verified major
// project. Results are cached for an hour; lookup failures resolve to
// false rather than an error since the allow-list is a discount, not a
// gate.
func (r *Resolver) IsOfficial(ctx context.Context, symbol string) bool {
	sym := strings.ToLower(strings.TrimSpace(symbol))
	if sym == "" {
		return false
	}

	r.mu.Lock()
	if e, ok := r.cache[sym]; ok && time.Now().Before(e.expires) {
		r.mu.Unlock()
		return e.official
	}
	r.mu.Unlock()

	official := r.resolve(ctx, sym)

	r.mu.Lock()
	r.cache[sym] = cacheEntry{official: official, expires: time.Now().Add(cacheTTL)}
	r.mu.Unlock()
	return official
}

func (r *Resolver) resolve(ctx context.Context, sym string) bool {
	var search searchResponse
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParam("query", sym).
		SetResult(&search).
		Get(r.baseURL + "/search")
	if err != nil || resp.IsError() {
		r.logger.Info("coingecko search unavailable", "symbol", sym, "err", err)
		return false
	}

	var id string
	for _, coin := range search.Coins {
		if strings.EqualFold(coin.Symbol, sym) {
			id = coin.ID
			break
		}
	}
	if id == "" {
		return false
	}

	var markets []marketEntry
	resp, err = r.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"ids":         id,
		}).
		SetResult(&markets).
		Get(r.baseURL + "/coins/markets")
	if err != nil || resp.IsError() {
		r.logger.Info("coingecko markets unavailable", "symbol", sym, "err", err)
		return false
	}
	if len(markets) == 0 {
		return false
	}
	if markets[0].MarketCap < officialMarketCapFloor {
		return false
	}
	r.logger.Info("symbol resolved as official token",
		"symbol", sym, "id", id, "market_cap", fmt.Sprintf("%.0f", markets[0].MarketCap))
	return true
}
