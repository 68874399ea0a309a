// Package helius implements the Solana chain adapter: mint authority
// checks plus full holder enumeration over the token-accounts index.
package helius

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://mainnet.helius-rpc.com"

// Holder enumeration bounds. 20 pages of 1000 accounts covers every
// token whose concentration could still move the top-10 figure.
const (
	maxHolderPages = 20
	pageSize       = 1000
)

// mintAuthorityFreshDays: an active mint authority on a token younger
// than this is a critical finding rather than a warning.
const mintAuthorityFreshDays = 90

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

func (c *Client) Name() string { return "helius" }

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type accountInfoResponse struct {
	Result struct {
		Value *struct {
			Data struct {
				Parsed struct {
					Info struct {
						FreezeAuthority string `json:"freezeAuthority"`
						MintAuthority   string `json:"mintAuthority"`
						Supply          string `json:"supply"`
						Decimals        int    `json:"decimals"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type tokenAccountsResponse struct {
	Result struct {
		TokenAccounts []struct {
			Owner  string  `json:"owner"`
			Amount float64 `json:"amount"`
		} `json:"token_accounts"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FetchChain implements the ChainProvider port with unknown age, which
// classifies an active mint authority at its strictest.
func (c *Client) FetchChain(ctx context.Context, token, chainID string) (*models.ChainRecord, error) {
	return c.FetchChainAged(ctx, token, 0)
}

// FetchChainAged scans the mint account and enumerates holders. A
// holder-enumeration failure degrades to the sentinel concentration
// instead of failing the scan.
func (c *Client) FetchChainAged(ctx context.Context, token string, ageDays int) (*models.ChainRecord, error) {
	rec := &models.ChainRecord{}

	var info accountInfoResponse
	err := c.rpc(ctx, "getAccountInfo", []interface{}{
		token,
		map[string]string{"encoding": "jsonParsed"},
	}, &info)
	if err != nil {
		c.logger.Error("helius account info failed", "mint", token, "err", err)
		return nil, fmt.Errorf("helius getAccountInfo: %w", err)
	}
	if info.Error != nil {
		return nil, fmt.Errorf("helius getAccountInfo: %s", info.Error.Message)
	}
	if info.Result.Value == nil {
		return nil, fmt.Errorf("helius getAccountInfo: mint %s not found", token)
	}

	var checks []models.SecurityCheck
	var positives []string

	mintInfo := info.Result.Value.Data.Parsed.Info
	frozen := mintInfo.FreezeAuthority != ""
	rec.FreezeAuthority = &frozen
	if frozen {
		checks = append(checks, providers.NewCheck(providers.CheckFreezeAuthority,
			models.SeverityCritical, "freeze authority active: accounts can be frozen", true))
	} else {
		positives = append(positives, "freeze authority revoked")
	}

	minting := mintInfo.MintAuthority != ""
	rec.MintAuthority = &minting
	if minting {
		if ageDays < mintAuthorityFreshDays {
			checks = append(checks, providers.NewCheck(providers.CheckMintAuthority,
				models.SeverityCritical, "mint authority active on a young token", true))
		} else {
			checks = append(checks, providers.NewCheckScored(providers.CheckMintAuthority,
				models.SeverityWarning, "mint authority still active", 25, true))
		}
	} else {
		positives = append(positives, "mint authority revoked")
	}

	holders, err := c.enumerateHolders(ctx, token)
	if err != nil {
		c.logger.Info("helius holder enumeration unavailable", "mint", token, "err", err)
		rec.Top10HoldersPct = models.Top10UnknownModerate
	} else {
		rec.HolderCount = len(holders)
		rec.Top10HoldersPct, rec.Top1HolderPct = concentration(holders)
		rec.Top10Measured = true
		for i, h := range holders {
			if i >= 10 {
				break
			}
			rec.TopHolders = append(rec.TopHolders, h)
		}
	}

	rec.Security = providers.BuildReport(checks)
	rec.PositiveSignals = positives
	return rec, nil
}

// enumerateHolders walks the token-accounts index page by page and
// groups balances by owner wallet. Multiple token accounts under one
// owner count as a single holder.
func (c *Client) enumerateHolders(ctx context.Context, mint string) ([]models.HolderBalance, error) {
	byOwner := map[string]float64{}

	for page := 1; page <= maxHolderPages; page++ {
		var out tokenAccountsResponse
		err := c.rpc(ctx, "getTokenAccounts", map[string]interface{}{
			"mint":  mint,
			"page":  page,
			"limit": pageSize,
		}, &out)
		if err != nil {
			return nil, fmt.Errorf("helius getTokenAccounts page %d: %w", page, err)
		}
		if out.Error != nil {
			return nil, fmt.Errorf("helius getTokenAccounts page %d: %s", page, out.Error.Message)
		}
		for _, acc := range out.Result.TokenAccounts {
			byOwner[acc.Owner] += acc.Amount
		}
		if len(out.Result.TokenAccounts) < pageSize {
			break
		}
	}
	if len(byOwner) == 0 {
		return nil, fmt.Errorf("helius getTokenAccounts: no holders for %s", mint)
	}

	holders := make([]models.HolderBalance, 0, len(byOwner))
	for owner, bal := range byOwner {
		holders = append(holders, models.HolderBalance{Address: owner, Balance: bal})
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].Balance > holders[j].Balance })
	return holders, nil
}

func concentration(holders []models.HolderBalance) (top10, top1 float64) {
	var total float64
	for _, h := range holders {
		total += h.Balance
	}
	if total == 0 {
		return 0, 0
	}
	top1 = holders[0].Balance / total
	for i, h := range holders {
		if i >= 10 {
			break
		}
		top10 += h.Balance / total
	}
	return top10, top1
}

func (c *Client) rpc(ctx context.Context, method string, params, result interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("api-key", c.apiKey).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: "tokenlab", Method: method, Params: params}).
		SetResult(result).
		Post(c.baseURL + "/")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}
