package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlab/internal/models"
)

func klineServer(t *testing.T, capture *map[string]string, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		if capture != nil {
			params := map[string]string{}
			for k := range r.URL.Query() {
				params[k] = r.URL.Query().Get(k)
			}
			*capture = params
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

const twoCandles = `[
	[1700000000000,"1.00","1.20","0.90","1.10","5000.0",1700003599999,"5500.0",100,"2500.0","2750.0","0"],
	[1700003600000,"1.10","1.30","1.05","1.25","6000.0",1700007199999,"7200.0",120,"3000.0","3600.0","0"]
]`

func TestFetchKlines(t *testing.T) {
	var params map[string]string
	ts := klineServer(t, &params, twoCandles)
	defer ts.Close()

	src := NewKlineSource("", "").SetBaseURL(ts.URL)
	chart, err := src.FetchKlines(context.Background(), "pepe", 7)
	require.NoError(t, err)

	assert.Equal(t, "PEPEUSDT", params["symbol"])
	assert.Equal(t, "1h", params["interval"])

	assert.Equal(t, "binance", chart.Source)
	assert.Equal(t, models.ChartExcellent, chart.Quality)
	assert.Equal(t, 2, chart.PriceCount)
	assert.Equal(t, []float64{1.00, 1.10}, chart.Opens)
	assert.Equal(t, []float64{1.10, 1.25}, chart.Closes)
	assert.Equal(t, []float64{1.20, 1.30}, chart.Highs)
	assert.Equal(t, 7, chart.TimeSpanDays)
}

func TestFetchKlinesDailyIntervalForLongRanges(t *testing.T) {
	var params map[string]string
	ts := klineServer(t, &params, twoCandles)
	defer ts.Close()

	src := NewKlineSource("", "").SetBaseURL(ts.URL)
	_, err := src.FetchKlines(context.Background(), "BTCUSDT", 90)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", params["symbol"])
	assert.Equal(t, "1d", params["interval"])
}

func TestFetchKlinesQuotedSymbolKept(t *testing.T) {
	var params map[string]string
	ts := klineServer(t, &params, twoCandles)
	defer ts.Close()

	src := NewKlineSource("", "").SetBaseURL(ts.URL)
	_, err := src.FetchKlines(context.Background(), "ethbtc", 7)
	require.NoError(t, err)
	assert.Equal(t, "ETHBTC", params["symbol"])
}

func TestFetchKlinesEmptySymbol(t *testing.T) {
	src := NewKlineSource("", "")
	_, err := src.FetchKlines(context.Background(), "  ", 7)
	assert.Error(t, err)
}

func TestFetchKlinesNoCandles(t *testing.T) {
	ts := klineServer(t, nil, `[]`)
	defer ts.Close()

	src := NewKlineSource("", "").SetBaseURL(ts.URL)
	_, err := src.FetchKlines(context.Background(), "PEPE", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candles")
}
