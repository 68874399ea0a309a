// Package binance serves exchange klines for tokens that have a listed
// trading symbol. It is the first history tier: exchange candles beat
// any on-chain reconstruction when they exist.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/tokenlab/internal/models"
)

const defaultQuote = "USDT"

type KlineSource struct {
	client *binance.Client
}

func NewKlineSource(apiKey, secretKey string) *KlineSource {
	return &KlineSource{client: binance.NewClient(apiKey, secretKey)}
}

// SetBaseURL redirects API calls, used by tests.
func (k *KlineSource) SetBaseURL(url string) *KlineSource {
	k.client.BaseURL = url
	return k
}

// FetchKlines loads candles for symbol over the last `days` days.
// Bare base symbols get the USDT quote appended ("PEPE" -> "PEPEUSDT").
func (k *KlineSource) FetchKlines(ctx context.Context, symbol string, days int) (*models.HistoricalChartData, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol))
	if pair == "" {
		return nil, fmt.Errorf("binance klines: empty symbol")
	}
	if !strings.HasSuffix(pair, defaultQuote) && !strings.HasSuffix(pair, "BTC") {
		pair += defaultQuote
	}

	interval := "1h"
	if days > 30 {
		interval = "1d"
	}
	start := time.Now().AddDate(0, 0, -days)

	klines, err := k.client.NewKlinesService().
		Symbol(pair).
		Interval(interval).
		StartTime(start.UnixMilli()).
		Limit(1000).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", pair, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance klines %s: no candles", pair)
	}

	chart := &models.HistoricalChartData{
		Source:       "binance",
		Quality:      models.ChartExcellent,
		TimeSpanDays: days,
		FetchedAt:    time.Now(),
	}
	for _, kl := range klines {
		open, err1 := strconv.ParseFloat(kl.Open, 64)
		high, err2 := strconv.ParseFloat(kl.High, 64)
		low, err3 := strconv.ParseFloat(kl.Low, 64)
		closeP, err4 := strconv.ParseFloat(kl.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		vol, _ := strconv.ParseFloat(kl.Volume, 64)

		chart.Labels = append(chart.Labels, time.UnixMilli(kl.OpenTime))
		chart.Opens = append(chart.Opens, open)
		chart.Highs = append(chart.Highs, high)
		chart.Lows = append(chart.Lows, low)
		chart.Closes = append(chart.Closes, closeP)
		chart.Volumes = append(chart.Volumes, vol)
	}
	if len(chart.Closes) == 0 {
		return nil, fmt.Errorf("binance klines %s: all candles malformed", pair)
	}
	chart.PriceCount = len(chart.Closes)
	return chart, nil
}
