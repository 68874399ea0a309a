// Package coinmarketcap implements the secondary market-data adapter.
// It is only consulted when the primary provider returns an all-empty
// record, and its result then replaces that record wholesale.
package coinmarketcap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://pro-api.coinmarketcap.com"

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

func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Name() string { return "coinmarketcap" }

type asset struct {
	TotalSupply float64  `json:"total_supply"`
	CircSupply  float64  `json:"circulating_supply"`
	MaxSupply   *float64 `json:"max_supply"`
	Quote       struct {
		USD struct {
			Price     float64 `json:"price"`
			Volume24h float64 `json:"volume_24h"`
			MarketCap float64 `json:"market_cap"`
			FDV       float64 `json:"fully_diluted_market_cap"`
		} `json:"USD"`
	} `json:"quote"`
}

type quotesResponse struct {
	// 以CMC内部ID为键
	Data map[string]asset `json:"data"`
}

// FetchMarket looks the token up by contract address. CMC has no
// liquidity figure, so LiquidityUSD stays zero and the orchestrator's
// quality rubric accounts for that.
func (c *Client) FetchMarket(ctx context.Context, token, chainID string) (*models.MarketRecord, error) {
	var out quotesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-CMC_PRO_API_KEY", c.apiKey).
		SetQueryParam("address", token).
		SetResult(&out).
		Get(c.baseURL + "/v2/cryptocurrency/quotes/latest")
	if err != nil {
		c.logger.Error("cmc quotes request failed", "token", token, "err", err)
		return nil, fmt.Errorf("coinmarketcap quotes: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("coinmarketcap quotes: status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("coinmarketcap quotes: token %s not listed", token)
	}

	// The response is keyed by an internal ID we do not know in advance;
	// an address lookup returns exactly one entry.
	var a asset
	for _, v := range out.Data {
		a = v
		break
	}

	rec := &models.MarketRecord{
		MarketCap:         a.Quote.USD.MarketCap,
		FDV:               a.Quote.USD.FDV,
		Volume24h:         a.Quote.USD.Volume24h,
		Price:             a.Quote.USD.Price,
		TotalSupply:       a.TotalSupply,
		CirculatingSupply: a.CircSupply,
	}
	if a.MaxSupply != nil && *a.MaxSupply > 0 {
		rec.MaxSupply = a.MaxSupply
	}
	return rec, nil
}
