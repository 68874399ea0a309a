// Package blockfrost implements the Cardano chain adapter. Cardano has
// no owner/tax surface; risk signals come from the minting policy and
// the on-chain holder distribution.
package blockfrost

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://cardano-mainnet.blockfrost.io/api/v0"

const topAddressCount = 100

type Client struct {
	baseURL   string
	projectID string
	http      *resty.Client
	logger    providers.Logger
}

func New(projectID string, logger providers.Logger) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		projectID: projectID,
		http:      request.New(10 * time.Second),
		logger:    logger,
	}
}

func (c *Client) SetBaseURL(u string) { c.baseURL = u }

func (c *Client) Name() string { return "blockfrost" }

type assetResponse struct {
	Asset           string                 `json:"asset"`
	PolicyID        string                 `json:"policy_id"`
	Quantity        string                 `json:"quantity"`
	MintOrBurnCount int                    `json:"mint_or_burn_count"`
	Metadata        map[string]interface{} `json:"metadata"`
	OnchainMetadata map[string]interface{} `json:"onchain_metadata"`
}

type addressEntry struct {
	Address  string `json:"address"`
	Quantity string `json:"quantity"`
}

// FetchChain inspects the asset's minting policy history and holder
// distribution. token is the full asset ID (policy ID + hex asset name).
func (c *Client) FetchChain(ctx context.Context, token, chainID string) (*models.ChainRecord, error) {
	var asset assetResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("project_id", c.projectID).
		SetResult(&asset).
		Get(fmt.Sprintf("%s/assets/%s", c.baseURL, token))
	if err != nil {
		c.logger.Error("blockfrost asset lookup failed", "asset", token, "err", err)
		return nil, fmt.Errorf("blockfrost asset: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("blockfrost asset: status %d", resp.StatusCode())
	}

	rec := &models.ChainRecord{}
	var checks []models.SecurityCheck
	var positives []string

	// A single mint event means the policy fired once and supply is
	// fixed in practice; repeated events mean the policy can still mint.
	if asset.MintOrBurnCount > 1 {
		checks = append(checks, providers.NewCheck(providers.CheckActiveMinting,
			models.SeverityCritical, "minting policy has fired multiple times, supply can inflate", true))
	} else {
		positives = append(positives, "minting policy fired once, supply fixed")
	}

	if asset.Metadata == nil && asset.OnchainMetadata == nil {
		checks = append(checks, providers.NewCheckScored(providers.CheckNoData,
			models.SeverityWarning, "asset has no registry or on-chain metadata", 30, true))
	} else {
		positives = append(positives, "asset metadata registered")
	}

	total, _ := strconv.ParseFloat(asset.Quantity, 64)
	if holders, err := c.topAddresses(ctx, token); err != nil {
		c.logger.Info("blockfrost holder lookup unavailable", "asset", token, "err", err)
		rec.Top10HoldersPct = models.Top10UnknownModerate
	} else if total > 0 && len(holders) > 0 {
		rec.HolderCount = len(holders)
		rec.Top10Measured = true
		rec.Top1HolderPct = holders[0].Balance / total
		for i, h := range holders {
			if i >= 10 {
				break
			}
			rec.Top10HoldersPct += h.Balance / total
			rec.TopHolders = append(rec.TopHolders, h)
		}
	} else {
		rec.Top10HoldersPct = models.Top10UnknownModerate
	}

	rec.Security = providers.BuildReport(checks)
	rec.PositiveSignals = positives
	return rec, nil
}

// topAddresses returns the largest holders, ordered by quantity
// descending. HolderCount is therefore a floor, not a census.
func (c *Client) topAddresses(ctx context.Context, asset string) ([]models.HolderBalance, error) {
	var entries []addressEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("project_id", c.projectID).
		SetQueryParams(map[string]string{
			"order": "desc",
			"count": strconv.Itoa(topAddressCount),
		}).
		SetResult(&entries).
		Get(fmt.Sprintf("%s/assets/%s/addresses", c.baseURL, asset))
	if err != nil {
		return nil, fmt.Errorf("blockfrost addresses: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("blockfrost addresses: status %d", resp.StatusCode())
	}

	holders := make([]models.HolderBalance, 0, len(entries))
	for _, e := range entries {
		q, err := strconv.ParseFloat(e.Quantity, 64)
		if err != nil {
			continue
		}
		holders = append(holders, models.HolderBalance{Address: e.Address, Balance: q})
	}
	return holders, nil
}
