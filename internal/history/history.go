// Package history builds price charts through a tiered source chain:
// exchange klines for listed symbols, pair OHLCV, then reconstructed
// candles from sampled price snapshots.
package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/providers/moralis"
)

// Snapshot reconstruction settings.
const (
	snapshotPoints   = 48
	candlesPerSeries = 24
)

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// SymbolSource serves exchange klines for tokens with a listed trading
// symbol.
type SymbolSource interface {
	FetchKlines(ctx context.Context, symbol string, days int) (*models.HistoricalChartData, error)
}

// PairSource serves native OHLCV for an on-chain trading pair.
type PairSource interface {
	ValidatePair(ctx context.Context, token, chainID string) (string, error)
	FetchOHLCV(ctx context.Context, pair, period string, days int) (*models.HistoricalChartData, error)
}

// SnapshotSource serves sampled historical prices when no candle source
// covers the token.
type SnapshotSource interface {
	FetchPriceSnapshots(ctx context.Context, token, chainID string, days, points int) ([]moralis.PriceSnapshot, error)
}

// Request 一次历史行情查询
type Request struct {
	Token   string
	ChainID string
	Symbol  string // exchange listing symbol, empty for address-only tokens
	Days    int
}

type Service struct {
	symbols   SymbolSource
	pairs     PairSource
	snapshots SnapshotSource
	logger    Logger
}

func NewService(symbols SymbolSource, pairs PairSource, snapshots SnapshotSource, logger Logger) *Service {
	return &Service{symbols: symbols, pairs: pairs, snapshots: snapshots, logger: logger}
}

// FetchChart walks the source tiers in order and returns the first
// usable chart. When every tier fails it returns an UNAVAILABLE chart
// carrying the accumulated warnings, not an error: callers render the
// warnings.
func (s *Service) FetchChart(ctx context.Context, req Request) (*models.HistoricalChartData, error) {
	if req.Token == "" && req.Symbol == "" {
		return nil, fmt.Errorf("history: request needs a token address or symbol")
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	var warnings []string

	if req.Symbol != "" && s.symbols != nil {
		chart, err := s.symbols.FetchKlines(ctx, req.Symbol, req.Days)
		if err == nil {
			finalize(chart, req.Days)
			return chart, nil
		}
		warnings = append(warnings, fmt.Sprintf("exchange klines: %v", err))
		s.logger.Info("kline source failed, falling back", "symbol", req.Symbol, "err", err)
	}

	if req.Token != "" && s.pairs != nil {
		chart, err := s.fetchPairChart(ctx, req)
		if err == nil {
			finalize(chart, req.Days)
			return chart, nil
		}
		warnings = append(warnings, fmt.Sprintf("pair ohlcv: %v", err))
		s.logger.Info("pair source failed, falling back", "token", req.Token, "err", err)
	}

	if req.Token != "" && s.snapshots != nil {
		chart, err := s.fetchSnapshotChart(ctx, req)
		if err == nil {
			chart.Warnings = append(warnings, chart.Warnings...)
			finalize(chart, req.Days)
			return chart, nil
		}
		warnings = append(warnings, fmt.Sprintf("price snapshots: %v", err))
		s.logger.Info("snapshot source failed", "token", req.Token, "err", err)
	}

	return &models.HistoricalChartData{
		Quality:      models.ChartUnavailable,
		TimeSpanDays: req.Days,
		FetchedAt:    time.Now(),
		Warnings:     warnings,
	}, nil
}

func (s *Service) fetchPairChart(ctx context.Context, req Request) (*models.HistoricalChartData, error) {
	pair, err := s.pairs.ValidatePair(ctx, req.Token, req.ChainID)
	if err != nil {
		return nil, err
	}
	period := "1h"
	if req.Days > 30 {
		period = "1d"
	}
	return s.pairs.FetchOHLCV(ctx, pair, period, req.Days)
}

// fetchSnapshotChart reconstructs OHLC candles from sampled prices:
// open is the first snapshot in the bucket, close the last, high and
// low the extremes.
func (s *Service) fetchSnapshotChart(ctx context.Context, req Request) (*models.HistoricalChartData, error) {
	snaps, err := s.snapshots.FetchPriceSnapshots(ctx, req.Token, req.ChainID, req.Days, snapshotPoints)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, fmt.Errorf("only %d price snapshots, cannot build candles", len(snaps))
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Time.Before(snaps[j].Time) })

	buckets := candlesPerSeries
	if len(snaps) < buckets {
		buckets = len(snaps)
	}
	span := snaps[len(snaps)-1].Time.Sub(snaps[0].Time)
	if span <= 0 {
		return nil, fmt.Errorf("price snapshots span no time")
	}
	bucketDur := span / time.Duration(buckets)

	chart := &models.HistoricalChartData{
		Source:       "moralis",
		Quality:      models.ChartModerate,
		TimeSpanDays: req.Days,
		FetchedAt:    time.Now(),
		Warnings:     []string{"candles reconstructed from sampled prices"},
	}

	idx := 0
	for b := 0; b < buckets && idx < len(snaps); b++ {
		end := snaps[0].Time.Add(time.Duration(b+1) * bucketDur)
		first := snaps[idx]
		open, high, low, last := first.Price, first.Price, first.Price, first.Price
		label := first.Time
		for idx < len(snaps) && (b == buckets-1 || !snaps[idx].Time.After(end)) {
			p := snaps[idx].Price
			if p > high {
				high = p
			}
			if p < low {
				low = p
			}
			last = p
			idx++
		}
		chart.Labels = append(chart.Labels, label)
		chart.Opens = append(chart.Opens, open)
		chart.Highs = append(chart.Highs, high)
		chart.Lows = append(chart.Lows, low)
		chart.Closes = append(chart.Closes, last)
	}
	chart.PriceCount = len(chart.Closes)
	return chart, nil
}

// finalize computes the derived statistics every tier shares.
func finalize(chart *models.HistoricalChartData, days int) {
	if chart.TimeSpanDays == 0 {
		chart.TimeSpanDays = days
	}
	if chart.FetchedAt.IsZero() {
		chart.FetchedAt = time.Now()
	}
	chart.PriceCount = len(chart.Closes)
	if len(chart.Closes) == 0 {
		return
	}
	first, last := chart.Closes[0], chart.Closes[len(chart.Closes)-1]
	if first > 0 {
		chart.PriceChange = (last - first) / first * 100
	}
	chart.Volatility = Volatility(chart.Closes)
	chart.VolatilityRisk = VolatilityRisk(chart.Volatility)
}

// Volatility is the coefficient of variation of closes, as a percent.
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	var sum float64
	for _, c := range closes {
		sum += c
	}
	mean := sum / float64(len(closes))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, c := range closes {
		d := c - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(closes)))
	return stddev / mean * 100
}

// VolatilityRisk maps a volatility percentage onto a 0-100 risk score,
// piecewise linear inside each band.
func VolatilityRisk(vol float64) float64 {
	switch {
	case vol <= 0:
		return 0
	case vol <= 5:
		return vol / 5 * 20
	case vol <= 15:
		return 20 + (vol-5)/10*40
	case vol <= 30:
		return 60 + (vol-15)/15*25
	default:
		risk := 85 + (vol-30)/30*15
		if risk > 100 {
			risk = 100
		}
		return risk
	}
}
