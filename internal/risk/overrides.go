package risk

import (
	"fmt"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Override constants. Application order is fixed: meme premium, whale
// wallet, critical-flag floor, allow-list discount, dead token. Later
// overrides see the output of earlier ones.
const (
	memePremium = 15

	whaleWalletThreshold = 0.40 // single holder share
	whaleWalletScore     = 94

	criticalFlagCount = 3
	criticalFlagFloor = 75

	officialDiscount = 45

	deadTokenFloor = 90
)

// applyOverrides runs the fixed override chain over a weighted base
// score and reports the last rule that changed it.
func applyOverrides(base int, d *models.TokenData, opts Options) (int, []string) {
	score := base
	var applied []string

	if opts.Classification != nil && opts.Classification.IsMeme {
		score = min(score+memePremium, 100)
		applied = append(applied, "meme token premium")
	}

	if d.Top1HolderPct >= whaleWalletThreshold {
		score = whaleWalletScore
		applied = append(applied, fmt.Sprintf("single wallet holds %.0f%% of supply", d.Top1HolderPct*100))
	}

	if d.Security.CriticalCount >= criticalFlagCount && score < criticalFlagFloor {
		score = criticalFlagFloor
		applied = append(applied, "multiple critical security findings")
	}

	if opts.IsOfficial {
		score = max(score-officialDiscount, 0)
		applied = append(applied, "verified major-project token")
	}

	if isDeadToken(d) && score < deadTokenFloor {
		score = deadTokenFloor
		applied = append(applied, "no liquidity, volume, or transactions")
	}

	return score, applied
}

// isDeadToken requires liquidity, volume, and tx count to all be zero
// at once. An estimated tx count is always nonzero (it derives from a
// nonzero volume), so the estimate path can never produce a dead verdict.
func isDeadToken(d *models.TokenData) bool {
	return d.LiquidityUSD == 0 && d.Volume24h == 0 && d.TxCount24h == 0
}
