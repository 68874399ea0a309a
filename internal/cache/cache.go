// Package cache holds recent scan results so repeat lookups within the
// TTL never touch the providers.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// DefaultTTL matches how fast tokenomics actually move: holder
// distributions and liquidity rarely shift meaningfully inside half an
// hour.
const DefaultTTL = 30 * time.Minute

// Store is the scan-result cache port. Writes are last-writer-wins;
// a miss returns (nil, nil).
type Store interface {
	Get(ctx context.Context, token, chainID string) (*models.RiskResult, error)
	Set(ctx context.Context, token, chainID string, result *models.RiskResult, ttl time.Duration) error
	// Stats returns hit/miss counters for the health endpoint.
	Stats() (hits, misses int64)
}

// Key builds the canonical cache key. Tokens are case-folded so
// checksummed and lowercase addresses share an entry.
func Key(token, chainID string) string {
	return fmt.Sprintf("scan:%s:%s", strings.ToLower(token), chainID)
}
