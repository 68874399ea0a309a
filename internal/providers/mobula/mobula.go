// Package mobula implements the primary market-data adapter plus the
// first-tier OHLCV history source.
package mobula

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://api.mobula.io/api/1"

// Mobula blockchain names differ from both numeric IDs and the common
// aliases, so the adapter owns its map.
var chainNames = map[string]string{
	"1":          "ethereum",
	"56":         "bnb-chain",
	"137":        "polygon",
	"43114":      "avalanche-c-chain",
	"250":        "fantom",
	"42161":      "arbitrum",
	"10":         "optimism",
	"8453":       "base",
	"324":        "zksync",
	"59144":      "linea",
	"42220":      "celo",
	"501":        "solana",
	"900":        "solana",
	"1399811149": "solana",
	"1815":       "cardano",
}

type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	logger  providers.Logger
}

func New(apiKey string, logger providers.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    request.New(10 * time.Second),
		logger:  logger,
	}
}

// SetBaseURL 测试时替换服务地址
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Name() string { return "mobula" }

// Upstream responses are inconsistent about field names across asset
// classes, so every field keeps at least one alias.
type marketPayload struct {
	MarketCap     float64 `json:"market_cap"`
	MarketCapAlt  float64 `json:"marketCap"`
	FDV           float64 `json:"market_cap_diluted"`
	FDVAlt        float64 `json:"fully_diluted_valuation"`
	Liquidity     float64 `json:"liquidity"`
	LiquidityUSD  float64 `json:"liquidity_usd"`
	Volume        float64 `json:"volume"`
	Volume24h     float64 `json:"volume_24h"`
	Price         float64 `json:"price"`
	PriceUSD      float64 `json:"price_usd"`
	TotalSupply   float64 `json:"total_supply"`
	TotalSupplyC  float64 `json:"totalSupply"`
	CircSupply    float64 `json:"circulating_supply"`
	CircSupplyAlt float64 `json:"circulatingSupply"`
	MaxSupply     *json.Number `json:"max_supply"`
}

type marketResponse struct {
	Data marketPayload `json:"data"`
}

// FetchMarket pulls market data for the token. Every percentage-like
// field downstream is a fraction; Mobula reports none, so no conversion
// happens here.
func (c *Client) FetchMarket(ctx context.Context, token, chainID string) (*models.MarketRecord, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.apiKey).
		SetQueryParam("asset", token)
	if name, ok := chainNames[chainID]; ok {
		req.SetQueryParam("blockchain", name)
	}

	var out marketResponse
	resp, err := req.SetResult(&out).Get(c.baseURL + "/market/data")
	if err != nil {
		c.logger.Error("mobula market request failed", "token", token, "err", err)
		return nil, fmt.Errorf("mobula market data: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("mobula market non-2xx", "token", token, "status", resp.StatusCode())
		return nil, fmt.Errorf("mobula market data: status %d", resp.StatusCode())
	}

	d := out.Data
	rec := &models.MarketRecord{
		MarketCap:         coalesce(d.MarketCap, d.MarketCapAlt),
		FDV:               coalesce(d.FDV, d.FDVAlt),
		LiquidityUSD:      coalesce(d.Liquidity, d.LiquidityUSD),
		Volume24h:         coalesce(d.Volume, d.Volume24h),
		Price:             coalesce(d.Price, d.PriceUSD),
		TotalSupply:       coalesce(d.TotalSupply, d.TotalSupplyC),
		CirculatingSupply: coalesce(d.CircSupply, d.CircSupplyAlt),
	}
	if d.MaxSupply != nil {
		if v, err := d.MaxSupply.Float64(); err == nil && v > 0 {
			rec.MaxSupply = &v
		}
	}
	return rec, nil
}

func coalesce(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

type pairsResponse struct {
	Data struct {
		Pairs []struct {
			Address string `json:"address"`
		} `json:"pairs"`
	} `json:"data"`
}

// ValidatePair resolves the token's most liquid trading pair. History
// lookups fail fast here instead of returning an empty candle series.
func (c *Client) ValidatePair(ctx context.Context, token, chainID string) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.apiKey).
		SetQueryParam("asset", token)
	if name, ok := chainNames[chainID]; ok {
		req.SetQueryParam("blockchain", name)
	}

	var out pairsResponse
	resp, err := req.SetResult(&out).Get(c.baseURL + "/market/pairs")
	if err != nil {
		return "", fmt.Errorf("mobula pairs: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("mobula pairs: status %d", resp.StatusCode())
	}
	if len(out.Data.Pairs) == 0 || out.Data.Pairs[0].Address == "" {
		return "", fmt.Errorf("mobula pairs: no trading pair for %s", token)
	}
	return out.Data.Pairs[0].Address, nil
}

type historyResponse struct {
	Data []struct {
		Time   int64   `json:"time"` // ms
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"data"`
}

// FetchOHLCV loads candles for a validated pair over the last `days`
// days at the given period (e.g. "1h", "1d").
func (c *Client) FetchOHLCV(ctx context.Context, pair, period string, days int) (*models.HistoricalChartData, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	var out historyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.apiKey).
		SetQueryParams(map[string]string{
			"address": pair,
			"period":  period,
			"from":    fmt.Sprintf("%d", from.UnixMilli()),
			"to":      fmt.Sprintf("%d", to.UnixMilli()),
		}).
		SetResult(&out).
		Get(c.baseURL + "/market/history/pair")
	if err != nil {
		c.logger.Error("mobula history request failed", "pair", pair, "err", err)
		return nil, fmt.Errorf("mobula history: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("mobula history: status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("mobula history: empty candle set for pair %s", pair)
	}

	chart := &models.HistoricalChartData{
		Source:       "mobula",
		Quality:      models.ChartExcellent,
		TimeSpanDays: days,
		FetchedAt:    time.Now(),
	}
	for _, k := range out.Data {
		chart.Labels = append(chart.Labels, time.UnixMilli(k.Time))
		chart.Opens = append(chart.Opens, k.Open)
		chart.Highs = append(chart.Highs, k.High)
		chart.Lows = append(chart.Lows, k.Low)
		chart.Closes = append(chart.Closes, k.Close)
		chart.Volumes = append(chart.Volumes, k.Volume)
	}
	chart.PriceCount = len(chart.Closes)
	return chart, nil
}
