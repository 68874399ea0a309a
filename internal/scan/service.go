// Package scan is the application service: cache read-through, fetch,
// quality gate, classification, scoring, and persistence in one pass.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/tokenlab/internal/cache"
	"github.com/songzhibin97/tokenlab/internal/data"
	"github.com/songzhibin97/tokenlab/internal/fetcher"
	"github.com/songzhibin97/tokenlab/internal/history"
	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/risk"
)

// stablecoinSymbols qualify for the fixed low-risk short circuit when
// their market cap confirms they are the real thing.
var stablecoinSymbols = map[string]bool{
	"USDT": true, "USDC": true, "DAI": true, "BUSD": true,
	"TUSD": true, "FDUSD": true, "PYUSD": true, "USDE": true,
}

const stablecoinMarketCapFloor = 100_000_000

const stablecoinScore = 5

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// TokenFetcher assembles the unified token record.
type TokenFetcher interface {
	Fetch(ctx context.Context, token, chainID string) (*models.TokenData, error)
}

// Detector classifies meme tokens.
type Detector interface {
	Detect(ctx context.Context, symbol, name, address string, manualMeme *bool) *models.Classification
}

// OfficialResolver feeds the allow-list adjustment.
type OfficialResolver interface {
	IsOfficial(ctx context.Context, symbol string) bool
}

// ChartFetcher serves historical price charts.
type ChartFetcher interface {
	FetchChart(ctx context.Context, req history.Request) (*models.HistoricalChartData, error)
}

// Options 一次扫描请求的附加参数
type Options struct {
	Symbol     string
	Name       string
	ManualMeme *bool
	SkipCache  bool
}

type Service struct {
	fetcher  TokenFetcher
	scorer   risk.Scorer
	detector Detector
	official OfficialResolver
	charts   ChartFetcher
	store    cache.Store
	history  data.ScanStorage
	cacheTTL time.Duration
	logger   Logger
}

func NewService(
	f TokenFetcher,
	scorer risk.Scorer,
	detector Detector,
	official OfficialResolver,
	charts ChartFetcher,
	store cache.Store,
	scans data.ScanStorage,
	cacheTTL time.Duration,
	logger Logger,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	return &Service{
		fetcher:  f,
		scorer:   scorer,
		detector: detector,
		official: official,
		charts:   charts,
		store:    store,
		history:  scans,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ScoreToken runs the full pipeline for one token. POOR-quality records
// are rejected with an InsufficientDataError naming the missing fields;
// a valid score is cached and persisted before returning.
func (s *Service) ScoreToken(ctx context.Context, token, chainID string, opts Options) (*models.RiskResult, error) {
	if !opts.SkipCache && s.store != nil {
		cached, err := s.store.Get(ctx, token, chainID)
		if err != nil {
			s.logger.Info("cache read failed", "token", token, "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	tokenData, err := s.fetcher.Fetch(ctx, token, chainID)
	if err != nil {
		return nil, err
	}
	tokenData.Symbol = opts.Symbol
	tokenData.Name = opts.Name

	if tokenData.DataQuality == models.QualityPoor {
		return nil, &models.InsufficientDataError{
			Token:   token,
			Chain:   chainID,
			Missing: fetcher.MissingFields(tokenData),
		}
	}

	if result := s.stablecoinShortCircuit(tokenData); result != nil {
		s.finish(ctx, token, chainID, tokenData, result)
		return result, nil
	}

	var classification *models.Classification
	if s.detector != nil {
		classification = s.detector.Detect(ctx, opts.Symbol, opts.Name, token, opts.ManualMeme)
	}

	official := false
	if s.official != nil && opts.Symbol != "" {
		official = s.official.IsOfficial(ctx, opts.Symbol)
	}

	result, err := s.scorer.Score(tokenData, risk.Options{
		Classification: classification,
		IsOfficial:     official,
	})
	if err != nil {
		return nil, fmt.Errorf("score %s on %s: %w", token, chainID, err)
	}

	s.finish(ctx, token, chainID, tokenData, result)
	return result, nil
}

// stablecoinShortCircuit returns a fixed low-risk verdict for verified
// stablecoins; their factor profile (huge supply, no burn, tight price)
// would otherwise read as moderately risky.
func (s *Service) stablecoinShortCircuit(d *models.TokenData) *models.RiskResult {
	sym := strings.ToUpper(strings.TrimSpace(d.Symbol))
	if !stablecoinSymbols[sym] || d.MarketCap < stablecoinMarketCapFloor {
		return nil
	}
	return &models.RiskResult{
		OverallRiskScore: stablecoinScore,
		RiskLevel:        models.RiskLow,
		ConfidenceScore:  90,
		Breakdown:        map[string]float64{},
		PositiveSignals:  []string{fmt.Sprintf("%s is an established stablecoin", sym)},
		DataSources:      d.DataSources,
		OverrideApplied:  true,
		OverrideReason:   "established stablecoin",
		AnalyzedAt:       time.Now(),
	}
}

// finish persists and caches a completed scan. Neither step can fail
// the request.
func (s *Service) finish(ctx context.Context, token, chainID string, d *models.TokenData, result *models.RiskResult) {
	if s.history != nil {
		rec := &data.ScanRecord{
			Token:      token,
			ChainID:    chainID,
			Score:      result.OverallRiskScore,
			RiskLevel:  result.RiskLevel,
			Confidence: result.ConfidenceScore,
			Quality:    d.DataQuality,
			Result:     result,
			ScannedAt:  result.AnalyzedAt,
		}
		if err := s.history.SaveScan(ctx, rec); err != nil {
			s.logger.Error("scan persistence failed", "token", token, "err", err)
		}
	}
	if s.store != nil {
		if err := s.store.Set(ctx, token, chainID, result, s.cacheTTL); err != nil {
			s.logger.Error("cache write failed", "token", token, "err", err)
		}
	}
}

// FetchHistoricalChart serves the price history for a token.
func (s *Service) FetchHistoricalChart(ctx context.Context, token, chainID, symbol string, days int) (*models.HistoricalChartData, error) {
	if s.charts == nil {
		return nil, fmt.Errorf("historical charts not configured")
	}
	return s.charts.FetchChart(ctx, history.Request{
		Token:   token,
		ChainID: chainID,
		Symbol:  symbol,
		Days:    days,
	})
}

// ScanHistory returns past scans for a token, newest first.
func (s *Service) ScanHistory(ctx context.Context, token, chainID string, limit int) ([]data.ScanRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.GetScanHistory(ctx, token, chainID, limit)
}
