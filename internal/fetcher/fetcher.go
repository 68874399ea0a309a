// Package fetcher assembles the unified token record: market data,
// on-chain activity, and chain-specific security in one adaptive pass.
package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/songzhibin97/tokenlab/internal/chains"
	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers"
)

// Age estimation bands: hotter volume/mcap ratios imply younger tokens.
const (
	ageRatioFresh   = 0.5
	ageRatioRecent  = 0.1
	ageRatioSettled = 0.01

	ageDaysFresh   = 2
	ageDaysRecent  = 10
	ageDaysSettled = 45
	ageDaysMature  = 180
)

// Rough average trade size used to estimate a tx count when no indexer
// covers the chain.
const estimatedTradeSizeUSD = 500

// Quality rubric points per populated field group.
const (
	qualityMarketCap = 30
	qualityLiquidity = 20
	qualityVolume    = 10
	qualitySupply    = 15
	qualityHolders   = 15
	qualityTop10     = 10
)

// Quality tier cutoffs over the rubric total.
const (
	qualityExcellentMin = 85
	qualityGoodMin      = 60
	qualityModerateMin  = 40
)

type Fetcher struct {
	primary   providers.MarketProvider
	secondary providers.MarketProvider
	indexer   providers.Indexer

	evm     providers.ChainProvider
	solana  providers.AgedChainProvider
	cardano providers.ChainProvider

	logger providers.Logger
}

func New(
	primary, secondary providers.MarketProvider,
	indexer providers.Indexer,
	evm providers.ChainProvider,
	solana providers.AgedChainProvider,
	cardano providers.ChainProvider,
	logger providers.Logger,
) *Fetcher {
	return &Fetcher{
		primary:   primary,
		secondary: secondary,
		indexer:   indexer,
		evm:       evm,
		solana:    solana,
		cardano:   cardano,
		logger:    logger,
	}
}

// Fetch builds the complete record for one token. Provider failures
// degrade the record's quality grade; only an empty chain ID or a total
// starvation (nothing usable from any source) escalates as an error.
func (f *Fetcher) Fetch(ctx context.Context, token, chainID string) (*models.TokenData, error) {
	if token == "" || chainID == "" {
		return nil, fmt.Errorf("fetch %q on %q: %w", token, chainID, models.ErrChainUnsupported)
	}
	family := chains.Resolve(chainID)

	data := &models.TokenData{
		Address:   token,
		ChainID:   chainID,
		Chain:     family,
		FetchedAt: time.Now(),
	}

	market, activity := f.fetchMarketAndActivity(ctx, token, chainID, family)
	if market != nil {
		data.MarketRecord = *market.rec
		data.DataSources = append(data.DataSources, market.source)
	}
	if activity != nil {
		data.DataSources = append(data.DataSources, f.indexer.Name())
	}

	f.backfillActivity(data, activity)
	f.backfillAge(data, activity)

	chain, chainSource := f.fetchChain(ctx, token, chainID, family, data.AgeDays)
	data.ChainRecord = *chain
	if chainSource != "" {
		data.DataSources = append(data.DataSources, chainSource)
	}

	if market == nil && chainSource == "" {
		f.logger.Error("all providers failed", "token", token, "chain", chainID)
		return nil, fmt.Errorf("fetch %s on %s: %w", token, chainID, models.ErrTotalDataStarvation)
	}

	data.DataQuality = gradeQuality(data)
	return data, nil
}

type marketResult struct {
	rec    *models.MarketRecord
	source string
}

// fetchMarketAndActivity runs the primary market lookup and the indexer
// concurrently and settles both, then decides whether the secondary
// provider must replace the primary record wholesale.
func (f *Fetcher) fetchMarketAndActivity(ctx context.Context, token, chainID string, family models.ChainType) (*marketResult, *providers.ActivityRecord) {
	var (
		wg       sync.WaitGroup
		market   *models.MarketRecord
		mErr     error
		activity *providers.ActivityRecord
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		market, mErr = f.primary.FetchMarket(ctx, token, chainID)
	}()

	if f.indexer != nil && (family == models.ChainEVM || family == models.ChainSolana) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			act, err := f.indexer.FetchActivity(ctx, token, chainID)
			if err != nil {
				f.logger.Info("indexer unavailable", "token", token, "err", err)
				return
			}
			activity = act
		}()
	}
	wg.Wait()

	if mErr != nil {
		f.logger.Info("primary market provider failed", "token", token, "err", mErr)
	}

	// Replacement, not merging: a half-empty primary record mixed with
	// secondary fields would hide which source each number came from.
	if mErr != nil || market == nil || market.Empty() {
		if f.secondary == nil {
			return nil, activity
		}
		sec, err := f.secondary.FetchMarket(ctx, token, chainID)
		if err != nil || sec.Empty() {
			if err != nil {
				f.logger.Info("secondary market provider failed", "token", token, "err", err)
			}
			if mErr != nil || market == nil {
				return nil, activity
			}
			return &marketResult{rec: market, source: f.primary.Name()}, activity
		}
		return &marketResult{rec: sec, source: f.secondary.Name()}, activity
	}
	return &marketResult{rec: market, source: f.primary.Name()}, activity
}

func (f *Fetcher) backfillActivity(data *models.TokenData, activity *providers.ActivityRecord) {
	if data.TxCount24h > 0 {
		return
	}
	if activity != nil && activity.BuyCount24h+activity.SellCount24h > 0 {
		data.TxCount24h = activity.BuyCount24h + activity.SellCount24h
		return
	}
	if data.Volume24h > 0 {
		data.TxCount24h = int(data.Volume24h / estimatedTradeSizeUSD)
		data.TxCount24hEstimated = true
	}
}

func (f *Fetcher) backfillAge(data *models.TokenData, activity *providers.ActivityRecord) {
	if data.AgeDays > 0 {
		return
	}
	if activity != nil && activity.CreatedAt != nil {
		days := int(time.Since(*activity.CreatedAt).Hours() / 24)
		if days >= 0 {
			data.AgeDays = days
			return
		}
	}
	data.AgeDays = estimateAgeDays(data.Volume24h, data.MarketCap)
	data.AgeDaysEstimated = true
}

// estimateAgeDays infers a rough token age from trading heat. New
// listings churn a large share of their market cap daily.
func estimateAgeDays(volume, marketCap float64) int {
	if marketCap <= 0 {
		return ageDaysMature
	}
	ratio := volume / marketCap
	switch {
	case ratio > ageRatioFresh:
		return ageDaysFresh
	case ratio > ageRatioRecent:
		return ageDaysRecent
	case ratio > ageRatioSettled:
		return ageDaysSettled
	default:
		return ageDaysMature
	}
}

// fetchChain dispatches exactly one chain-specific sub-fetch per the
// resolved family. Failures degrade to the stub record.
func (f *Fetcher) fetchChain(ctx context.Context, token, chainID string, family models.ChainType, ageDays int) (*models.ChainRecord, string) {
	var (
		rec    *models.ChainRecord
		err    error
		source string
	)
	switch family {
	case models.ChainEVM:
		if f.evm != nil {
			rec, err = f.evm.FetchChain(ctx, token, chainID)
			source = f.evm.Name()
		}
	case models.ChainSolana:
		if f.solana != nil {
			rec, err = f.solana.FetchChainAged(ctx, token, ageDays)
			source = f.solana.Name()
		}
	case models.ChainCardano:
		if f.cardano != nil {
			rec, err = f.cardano.FetchChain(ctx, token, chainID)
			source = f.cardano.Name()
		}
	}
	if err != nil {
		f.logger.Info("chain adapter failed", "token", token, "chain", chainID, "err", err)
	}
	if rec == nil {
		return stubChainRecord(family), ""
	}
	return rec, source
}

// stubChainRecord covers chains with no security adapter. It assumes
// concentrated holdings and carries one critical insufficient-data
// finding so the scorer cannot mistake silence for safety.
func stubChainRecord(family models.ChainType) *models.ChainRecord {
	check := providers.NewCheck(providers.CheckNoData, models.SeverityCritical,
		fmt.Sprintf("no security data available for %s chain", family), false)
	return &models.ChainRecord{
		Top10HoldersPct: models.Top10UnknownConcentrated,
		Security:        providers.BuildReport([]models.SecurityCheck{check}),
	}
}

func gradeQuality(d *models.TokenData) models.DataQuality {
	score := 0
	if d.MarketCap > 0 {
		score += qualityMarketCap
	}
	if d.LiquidityUSD > 0 {
		score += qualityLiquidity
	}
	if d.Volume24h > 0 {
		score += qualityVolume
	}
	if d.TotalSupply > 0 {
		score += qualitySupply
	}
	if d.HolderCount > 0 {
		score += qualityHolders
	}
	if d.Top10Measured {
		score += qualityTop10
	}
	switch {
	case score >= qualityExcellentMin:
		return models.QualityExcellent
	case score >= qualityGoodMin:
		return models.QualityGood
	case score >= qualityModerateMin:
		return models.QualityModerate
	default:
		return models.QualityPoor
	}
}

// MissingFields names the field groups the quality rubric found empty,
// for insufficient-data responses.
func MissingFields(d *models.TokenData) []string {
	var missing []string
	if d.MarketCap == 0 {
		missing = append(missing, "market_cap")
	}
	if d.LiquidityUSD == 0 {
		missing = append(missing, "liquidity")
	}
	if d.Volume24h == 0 {
		missing = append(missing, "volume_24h")
	}
	if d.TotalSupply == 0 {
		missing = append(missing, "total_supply")
	}
	if d.HolderCount == 0 {
		missing = append(missing, "holder_count")
	}
	if !d.Top10Measured {
		missing = append(missing, "holder_concentration")
	}
	return missing
}
