// Package goplus implements the EVM security scanner adapter.
package goplus

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
	"github.com/songzhibin97/tokenlab/internal/utils/request"
)

const defaultBaseURL = "https://api.gopluslabs.io/api/v1"

// 税率阈值, GoPlus返回的税率本身就是0-1小数
const (
	extremeSellTax = 0.5
	highBuyTax     = 0.1
)

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

func (c *Client) Name() string { return "goplus" }

// GoPlus serializes nearly everything as strings ("1"/"0", "0.05").
type tokenSecurity struct {
	IsHoneypot      string `json:"is_honeypot"`
	CannotBuy       string `json:"cannot_buy"`
	CannotSellAll   string `json:"cannot_sell_all"`
	BuyTax          string `json:"buy_tax"`
	SellTax         string `json:"sell_tax"`
	SlippageModif   string `json:"slippage_modifiable"`
	IsMintable      string `json:"is_mintable"`
	IsProxy         string `json:"is_proxy"`
	IsOpenSource    string `json:"is_open_source"`
	TradingCooldown string `json:"trading_cooldown"`
	OwnerAddress    string `json:"owner_address"`
	HolderCount     string `json:"holder_count"`
	Holders         []struct {
		Address string `json:"address"`
		Balance string `json:"balance"`
		Percent string `json:"percent"`
	} `json:"holders"`
	LPHolders []struct {
		IsLocked int `json:"is_locked"`
	} `json:"lp_holders"`
}

type securityResponse struct {
	Code    int                      `json:"code"`
	Message string                   `json:"message"`
	Result  map[string]tokenSecurity `json:"result"`
}

// FetchChain scans the contract and maps GoPlus findings onto the
// canonical check set. All tax and holder percentages stay fractions.
func (c *Client) FetchChain(ctx context.Context, token, chainID string) (*models.ChainRecord, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("contract_addresses", token)
	if c.apiKey != "" {
		req.SetHeader("Authorization", c.apiKey)
	}

	var out securityResponse
	resp, err := req.SetResult(&out).Get(fmt.Sprintf("%s/token_security/%s", c.baseURL, chainID))
	if err != nil {
		c.logger.Error("goplus scan failed", "token", token, "err", err)
		return nil, fmt.Errorf("goplus token_security: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("goplus token_security: status %d", resp.StatusCode())
	}
	if out.Code != 1 {
		return nil, fmt.Errorf("goplus token_security: code %d (%s)", out.Code, out.Message)
	}

	sec, ok := out.Result[strings.ToLower(token)]
	if !ok {
		return nil, fmt.Errorf("goplus token_security: no result for %s", token)
	}
	return c.buildRecord(sec), nil
}

func (c *Client) buildRecord(sec tokenSecurity) *models.ChainRecord {
	rec := &models.ChainRecord{}

	var checks []models.SecurityCheck
	var positives []string

	honeypot := flag(sec.IsHoneypot)
	rec.IsHoneypot = &honeypot
	if honeypot {
		checks = append(checks, providers.NewCheck(providers.CheckHoneypot,
			models.SeverityCritical, "token is a honeypot: selling is blocked", false))
	}
	if flag(sec.CannotBuy) {
		checks = append(checks, providers.NewCheck(providers.CheckCannotBuy,
			models.SeverityCritical, "token cannot be bought", false))
	}

	if v, ok := fraction(sec.SellTax); ok {
		rec.SellTax = &v
		if v > extremeSellTax {
			checks = append(checks, providers.NewCheck(providers.CheckExtremeSellTax,
				models.SeverityCritical, fmt.Sprintf("sell tax %.0f%% traps holders", v*100), false))
		}
	}
	if v, ok := fraction(sec.BuyTax); ok {
		rec.BuyTax = &v
		if v > highBuyTax {
			checks = append(checks, providers.NewCheck(providers.CheckHighBuyTax,
				models.SeverityWarning, fmt.Sprintf("buy tax %.0f%%", v*100), false))
		}
	}
	if flag(sec.SlippageModif) {
		mod := true
		rec.TaxModifiable = &mod
	}

	if flag(sec.IsMintable) {
		mintable := true
		rec.IsMintable = &mintable
		checks = append(checks, providers.NewCheckScored(providers.CheckActiveMinting,
			models.SeverityWarning, "owner can mint new supply", 40, false))
	}
	if flag(sec.IsProxy) {
		checks = append(checks, providers.NewCheck(providers.CheckProxyContract,
			models.SeverityWarning, "proxy contract: logic can be swapped", false))
	}
	if flag(sec.TradingCooldown) {
		checks = append(checks, providers.NewCheck(providers.CheckTradingCooldown,
			models.SeverityWarning, "trading cooldown enabled", false))
	}

	if sec.IsOpenSource != "" {
		open := flag(sec.IsOpenSource)
		rec.IsOpenSource = &open
		if open {
			positives = append(positives, "contract source code is verified")
		} else {
			checks = append(checks, providers.NewCheck(providers.CheckClosedSource,
				models.SeverityWarning, "contract source not verified", false))
		}
	}

	renounced := ownerRenounced(sec.OwnerAddress)
	rec.OwnerRenounced = &renounced
	if renounced {
		positives = append(positives, "ownership renounced")
	} else if sec.OwnerAddress != "" {
		checks = append(checks, providers.NewCheck(providers.CheckOwnerPresent,
			models.SeverityInfo, "contract owner retains privileges", false))
	}

	for _, lp := range sec.LPHolders {
		if lp.IsLocked == 1 {
			locked := true
			rec.LPLocked = &locked
			positives = append(positives, "liquidity locked")
			break
		}
	}

	if n, err := strconv.Atoi(sec.HolderCount); err == nil {
		rec.HolderCount = n
	}
	rec.Top10HoldersPct, rec.Top1HolderPct, rec.Top10Measured = topConcentration(sec)
	if !rec.Top10Measured {
		rec.Top10HoldersPct = models.Top10UnknownModerate
	}

	rec.Security = providers.BuildReport(checks)
	rec.PositiveSignals = positives
	return rec
}

// topConcentration sums the reported top-holder fractions. The upstream
// ordering is undocumented, so holders are re-sorted before taking the
// top ten.
func topConcentration(sec tokenSecurity) (top10, top1 float64, measured bool) {
	if len(sec.Holders) == 0 {
		return 0, 0, false
	}
	pcts := make([]float64, 0, len(sec.Holders))
	for _, h := range sec.Holders {
		if v, ok := fraction(h.Percent); ok {
			pcts = append(pcts, v)
		}
	}
	if len(pcts) == 0 {
		return 0, 0, false
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(pcts)))
	top1 = pcts[0]
	for i, v := range pcts {
		if i >= 10 {
			break
		}
		top10 += v
	}
	return top10, top1, true
}

func flag(s string) bool { return s == "1" }

func fraction(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func ownerRenounced(owner string) bool {
	switch strings.ToLower(owner) {
	case "", "0x0000000000000000000000000000000000000000",
		"0x000000000000000000000000000000000000dead":
		return true
	}
	return false
}
