package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlab/internal/models"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	result := &models.RiskResult{OverallRiskScore: 42, RiskLevel: models.RiskMedium}
	require.NoError(t, m.Set(ctx, "0xAbC", "1", result, time.Minute))

	// Address case does not split the cache entry.
	got, err := m.Get(ctx, "0xabc", "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.OverallRiskScore)

	hits, misses := m.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), misses)
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	got, err := m.Get(context.Background(), "0xabc", "1")
	require.NoError(t, err)
	assert.Nil(t, got)

	hits, misses := m.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "0xabc", "1", &models.RiskResult{}, time.Nanosecond))
	time.Sleep(time.Millisecond)

	got, err := m.Get(ctx, "0xabc", "1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryChainSeparatesEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "0xabc", "1", &models.RiskResult{OverallRiskScore: 10}, time.Minute))
	require.NoError(t, m.Set(ctx, "0xabc", "56", &models.RiskResult{OverallRiskScore: 90}, time.Minute))

	eth, err := m.Get(ctx, "0xabc", "1")
	require.NoError(t, err)
	bsc, err := m.Get(ctx, "0xabc", "56")
	require.NoError(t, err)
	assert.Equal(t, 10, eth.OverallRiskScore)
	assert.Equal(t, 90, bsc.OverallRiskScore)
}

func TestMemoryLastWriterWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "0xabc", "1", &models.RiskResult{OverallRiskScore: 10}, time.Minute))
	require.NoError(t, m.Set(ctx, "0xabc", "1", &models.RiskResult{OverallRiskScore: 75}, time.Minute))

	got, err := m.Get(ctx, "0xabc", "1")
	require.NoError(t, err)
	assert.Equal(t, 75, got.OverallRiskScore)
}
