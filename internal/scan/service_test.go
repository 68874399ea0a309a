package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlab/internal/cache"
	"github.com/songzhibin97/tokenlab/internal/data"
	"github.com/songzhibin97/tokenlab/internal/history"
	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/risk"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})  {}
func (nopLogger) Error(msg string, fields ...interface{}) {}

type fakeFetcher struct {
	data  *models.TokenData
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, token, chainID string) (*models.TokenData, error) {
	f.calls++
	return f.data, f.err
}

type fakeScorer struct {
	result   *models.RiskResult
	err      error
	lastOpts risk.Options
	calls    int
}

func (f *fakeScorer) Score(d *models.TokenData, opts risk.Options) (*models.RiskResult, error) {
	f.calls++
	f.lastOpts = opts
	return f.result, f.err
}

type fakeDetector struct {
	result *models.Classification
}

func (f *fakeDetector) Detect(ctx context.Context, symbol, name, address string, manualMeme *bool) *models.Classification {
	return f.result
}

type fakeResolver struct {
	official bool
	calls    int
}

func (f *fakeResolver) IsOfficial(ctx context.Context, symbol string) bool {
	f.calls++
	return f.official
}

type fakeCharts struct {
	chart   *models.HistoricalChartData
	lastReq history.Request
}

func (f *fakeCharts) FetchChart(ctx context.Context, req history.Request) (*models.HistoricalChartData, error) {
	f.lastReq = req
	return f.chart, nil
}

type fakeStorage struct {
	saved   []*data.ScanRecord
	saveErr error
	history []data.ScanRecord
}

func (f *fakeStorage) SaveScan(ctx context.Context, rec *data.ScanRecord) error {
	f.saved = append(f.saved, rec)
	return f.saveErr
}

func (f *fakeStorage) GetScanHistory(ctx context.Context, token, chainID string, limit int) ([]data.ScanRecord, error) {
	return f.history, nil
}

func (f *fakeStorage) GetLatestScan(ctx context.Context, token, chainID string) (*data.ScanRecord, error) {
	return nil, nil
}

func goodToken() *models.TokenData {
	return &models.TokenData{
		Address: "0xabc",
		ChainID: "1",
		MarketRecord: models.MarketRecord{
			MarketCap:    5_000_000,
			LiquidityUSD: 300_000,
		},
		ChainRecord: models.ChainRecord{
			HolderCount: 4000,
		},
		DataQuality: models.QualityGood,
		DataSources: []string{"mobula", "goplus"},
	}
}

func newTestService(f *fakeFetcher, sc *fakeScorer, st *fakeStorage) (*Service, *fakeResolver) {
	resolver := &fakeResolver{}
	return NewService(
		f,
		sc,
		&fakeDetector{result: &models.Classification{IsMeme: false, Confidence: 40}},
		resolver,
		&fakeCharts{},
		cache.NewMemory(),
		st,
		time.Minute,
		nopLogger{},
	), resolver
}

func TestScoreTokenPipeline(t *testing.T) {
	fetch := &fakeFetcher{data: goodToken()}
	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 33, RiskLevel: models.RiskLow, AnalyzedAt: time.Now()}}
	storage := &fakeStorage{}
	svc, _ := newTestService(fetch, scorer, storage)

	got, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "ABC"})
	require.NoError(t, err)
	assert.Equal(t, 33, got.OverallRiskScore)
	assert.Equal(t, 1, fetch.calls)
	assert.Equal(t, 1, scorer.calls)
	require.NotNil(t, scorer.lastOpts.Classification)

	// 结果已落库
	require.Len(t, storage.saved, 1)
	assert.Equal(t, "0xabc", storage.saved[0].Token)
	assert.Equal(t, 33, storage.saved[0].Score)
	assert.Equal(t, models.QualityGood, storage.saved[0].Quality)
}

func TestScoreTokenCacheHit(t *testing.T) {
	fetch := &fakeFetcher{data: goodToken()}
	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 33, RiskLevel: models.RiskLow}}
	svc, _ := newTestService(fetch, scorer, &fakeStorage{})

	_, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "ABC"})
	require.NoError(t, err)
	_, err = svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "ABC"})
	require.NoError(t, err)

	// Second call is served from the cache.
	assert.Equal(t, 1, fetch.calls)
	assert.Equal(t, 1, scorer.calls)
}

func TestScoreTokenSkipCache(t *testing.T) {
	fetch := &fakeFetcher{data: goodToken()}
	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 33, RiskLevel: models.RiskLow}}
	svc, _ := newTestService(fetch, scorer, &fakeStorage{})

	opts := Options{Symbol: "ABC", SkipCache: true}
	_, err := svc.ScoreToken(context.Background(), "0xabc", "1", opts)
	require.NoError(t, err)
	_, err = svc.ScoreToken(context.Background(), "0xabc", "1", opts)
	require.NoError(t, err)

	assert.Equal(t, 2, fetch.calls)
}

func TestScoreTokenPoorQualityRejected(t *testing.T) {
	poor := goodToken()
	poor.DataQuality = models.QualityPoor
	poor.MarketCap = 0
	poor.LiquidityUSD = 0

	svc, _ := newTestService(&fakeFetcher{data: poor}, &fakeScorer{}, &fakeStorage{})

	_, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))

	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.NotEmpty(t, insufficient.Missing)
}

func TestScoreTokenFetchErrorPassesThrough(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{err: models.ErrChainUnsupported}, &fakeScorer{}, &fakeStorage{})

	_, err := svc.ScoreToken(context.Background(), "0xabc", "badchain", Options{})
	assert.ErrorIs(t, err, models.ErrChainUnsupported)
}

func TestScoreTokenStablecoinShortCircuit(t *testing.T) {
	stable := goodToken()
	stable.MarketCap = 80_000_000_000

	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 40}}
	storage := &fakeStorage{}
	svc, resolver := newTestService(&fakeFetcher{data: stable}, scorer, storage)

	got, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "usdc"})
	require.NoError(t, err)
	assert.Equal(t, stablecoinScore, got.OverallRiskScore)
	assert.Equal(t, models.RiskLow, got.RiskLevel)
	assert.True(t, got.OverrideApplied)

	// Scoring and the official lookup never run.
	assert.Equal(t, 0, scorer.calls)
	assert.Equal(t, 0, resolver.calls)
	assert.Len(t, storage.saved, 1)
}

func TestScoreTokenSmallCapStablecoinNotShortCircuited(t *testing.T) {
	// A token borrowing the USDC symbol without the market cap is scored
	// like anything else.
	impostor := goodToken()
	impostor.MarketCap = 2_000_000

	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 88, RiskLevel: models.RiskCritical}}
	svc, _ := newTestService(&fakeFetcher{data: impostor}, scorer, &fakeStorage{})

	got, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "USDC"})
	require.NoError(t, err)
	assert.Equal(t, 88, got.OverallRiskScore)
	assert.Equal(t, 1, scorer.calls)
}

func TestScoreTokenOfficialFlagForwarded(t *testing.T) {
	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 10, RiskLevel: models.RiskLow}}
	svc, resolver := newTestService(&fakeFetcher{data: goodToken()}, scorer, &fakeStorage{})
	resolver.official = true

	_, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "UNI"})
	require.NoError(t, err)
	assert.True(t, scorer.lastOpts.IsOfficial)
}

func TestScoreTokenPersistFailureNonFatal(t *testing.T) {
	scorer := &fakeScorer{result: &models.RiskResult{OverallRiskScore: 33, RiskLevel: models.RiskLow}}
	storage := &fakeStorage{saveErr: errors.New("db down")}
	svc, _ := newTestService(&fakeFetcher{data: goodToken()}, scorer, storage)

	got, err := svc.ScoreToken(context.Background(), "0xabc", "1", Options{Symbol: "ABC"})
	require.NoError(t, err)
	assert.Equal(t, 33, got.OverallRiskScore)
}

func TestFetchHistoricalChart(t *testing.T) {
	charts := &fakeCharts{chart: &models.HistoricalChartData{Source: "binance", Quality: models.ChartExcellent}}
	svc := NewService(&fakeFetcher{}, &fakeScorer{}, nil, nil, charts, nil, nil, 0, nopLogger{})

	got, err := svc.FetchHistoricalChart(context.Background(), "0xabc", "1", "ABC", 7)
	require.NoError(t, err)
	assert.Equal(t, "binance", got.Source)
	assert.Equal(t, 7, charts.lastReq.Days)
	assert.Equal(t, "ABC", charts.lastReq.Symbol)
}

func TestScanHistoryWithoutStorage(t *testing.T) {
	svc := NewService(&fakeFetcher{}, &fakeScorer{}, nil, nil, nil, nil, nil, 0, nopLogger{})

	records, err := svc.ScanHistory(context.Background(), "0xabc", "1", 10)
	require.NoError(t, err)
	assert.Nil(t, records)
}
