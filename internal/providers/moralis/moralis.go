// Package moralis implements the on-chain indexer adapter: transfer
// activity, token metadata, and the price snapshots that back the
// second-tier history fallback.
package moralis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://deep-index.moralis.io/api/v2.2"

// Moralis plan limit is 50 req/s; 40 keeps headroom for bursts from
// concurrent scans.
const requestsPerSecond = 40

// chainNames Moralis使用十六进制链ID
var chainNames = map[string]string{
	"1":     "0x1",
	"56":    "0x38",
	"137":   "0x89",
	"43114": "0xa86a",
	"250":   "0xfa",
	"42161": "0xa4b1",
	"10":    "0xa",
	"8453":  "0x2105",
	"324":   "0x144",
	"59144": "0xe708",
	"42220": "0xa4ec",
}

type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	guard   *request.Guard
	logger  providers.Logger
}

func New(apiKey string, logger providers.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    request.New(10 * time.Second),
		guard:   request.NewGuard("moralis", requestsPerSecond, requestsPerSecond),
		logger:  logger,
	}
}

func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Name() string { return "moralis" }

func (c *Client) chain(chainID string) (string, error) {
	name, ok := chainNames[chainID]
	if !ok {
		return "", fmt.Errorf("moralis: chain %s not indexed", chainID)
	}
	return name, nil
}

type analyticsResponse struct {
	TotalBuys  map[string]int `json:"totalBuys"`
	TotalSells map[string]int `json:"totalSells"`
}

type metadataEntry struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	CreatedAt string `json:"created_at"`
}

// FetchActivity pulls 24h buy/sell counts and the token creation time.
// Both calls run under the shared guard; a metadata failure degrades to
// activity-only rather than failing the whole record.
func (c *Client) FetchActivity(ctx context.Context, token, chainID string) (*providers.ActivityRecord, error) {
	chain, err := c.chain(chainID)
	if err != nil {
		return nil, err
	}

	var analytics analyticsResponse
	err = c.guard.Do(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("X-API-Key", c.apiKey).
			SetQueryParam("chain", chain).
			SetResult(&analytics).
			Get(fmt.Sprintf("%s/tokens/%s/analytics", c.baseURL, token))
		if err != nil {
			return fmt.Errorf("moralis analytics: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("moralis analytics: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.logger.Error("moralis analytics failed", "token", token, "err", err)
		return nil, err
	}

	rec := &providers.ActivityRecord{
		BuyCount24h:  analytics.TotalBuys["24h"],
		SellCount24h: analytics.TotalSells["24h"],
	}

	var meta []metadataEntry
	err = c.guard.Do(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("X-API-Key", c.apiKey).
			SetQueryParams(map[string]string{
				"chain":        chain,
				"addresses[0]": token,
			}).
			SetResult(&meta).
			Get(c.baseURL + "/erc20/metadata")
		if err != nil {
			return fmt.Errorf("moralis metadata: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("moralis metadata: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.logger.Info("moralis metadata unavailable", "token", token, "err", err)
		return rec, nil
	}
	if len(meta) > 0 && meta[0].CreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, meta[0].CreatedAt); err == nil {
			rec.CreatedAt = &created
		}
	}
	return rec, nil
}

// PriceSnapshot 单点历史价格
type PriceSnapshot struct {
	Time  time.Time
	Price float64
}

type priceResponse struct {
	USDPrice float64 `json:"usdPrice"`
}

// FetchPriceSnapshots samples `points` evenly-spaced prices over the
// last `days` days. Individual snapshot failures are skipped; the
// caller judges whether enough points survived.
func (c *Client) FetchPriceSnapshots(ctx context.Context, token, chainID string, days, points int) ([]PriceSnapshot, error) {
	chain, err := c.chain(chainID)
	if err != nil {
		return nil, err
	}
	if points < 2 {
		points = 2
	}

	now := time.Now()
	span := time.Duration(days) * 24 * time.Hour
	step := span / time.Duration(points-1)

	snapshots := make([]PriceSnapshot, 0, points)
	for i := 0; i < points; i++ {
		at := now.Add(-span + time.Duration(i)*step)

		var out priceResponse
		err := c.guard.Do(ctx, func() error {
			resp, err := c.http.R().
				SetContext(ctx).
				SetHeader("X-API-Key", c.apiKey).
				SetQueryParams(map[string]string{
					"chain":   chain,
					"to_date": at.UTC().Format(time.RFC3339),
				}).
				SetResult(&out).
				Get(fmt.Sprintf("%s/erc20/%s/price", c.baseURL, token))
			if err != nil {
				return fmt.Errorf("moralis price: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("moralis price: status %d", resp.StatusCode())
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if out.USDPrice > 0 {
			snapshots = append(snapshots, PriceSnapshot{Time: at, Price: out.USDPrice})
		}
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("moralis price: no usable snapshots for %s", token)
	}
	return snapshots, nil
}
