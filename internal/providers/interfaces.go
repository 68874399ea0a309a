// Package providers defines the ports every upstream data source
// implements, plus the shared severity table for security findings.
package providers

import (
	"context"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Logger 日志接口
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// MarketProvider fetches market-level data (price, caps, supplies,
// liquidity) for a token. Implementations never panic; any transport or
// parse failure comes back as an error the orchestrator treats as
// "provider unavailable".
type MarketProvider interface {
	Name() string
	FetchMarket(ctx context.Context, token, chainID string) (*models.MarketRecord, error)
}

// ChainProvider fetches chain-specific security checks and holder
// distribution for a token.
type ChainProvider interface {
	Name() string
	FetchChain(ctx context.Context, token, chainID string) (*models.ChainRecord, error)
}

// AgedChainProvider is a ChainProvider whose severity classification
// depends on token age (authority findings weigh more on fresh tokens).
type AgedChainProvider interface {
	Name() string
	FetchChainAged(ctx context.Context, token string, ageDays int) (*models.ChainRecord, error)
}

// ActivityRecord carries indexer-side activity data used to backfill
// fields the market provider did not report.
type ActivityRecord struct {
	BuyCount24h  int
	SellCount24h int
	CreatedAt    *time.Time
}

// Indexer fetches on-chain activity patterns for backfilling.
type Indexer interface {
	Name() string
	FetchActivity(ctx context.Context, token, chainID string) (*ActivityRecord, error)
}
