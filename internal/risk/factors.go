package risk

import (
	"github.com/songzhibin97/tokenlab/internal/models"
)

// Threshold bands for the factor calculators. Each factor maps its
// inputs to a 0-100 score, higher = riskier; an unknown input lands in
// the middle of its band rather than at either extreme.

const (
	unknownModerate = 50
	unknownVesting  = 40
	unknownAudit    = 55
)

// Holder concentration bands (top-10 share, fraction). The unknown
// sentinels 0.5 and 0.65 deliberately land in the moderate and high
// bands respectively.
const (
	concentrationDispersed = 0.20
	concentrationLight     = 0.35
	concentrationModerate  = 0.50
	concentrationHeavy     = 0.70
)

// Liquidity depth bands (USD).
const (
	liquidityDust    = 10_000
	liquidityThin    = 50_000
	liquidityWorking = 250_000
	liquidityDeep    = 1_000_000
)

// Circulating/total supply ratio bands.
const (
	supplyMostlyCirculating = 0.9
	supplyLargelyOut        = 0.7
	supplyHalfOut           = 0.5
	supplyMostlyLocked      = 0.3
)

// Tax bands (fractions).
const (
	taxExtreme    = 0.5
	taxSevere     = 0.25
	taxHigh       = 0.1
	taxNoticeable = 0.05
)

// Unlock pressure bands (share of supply unlocking in 30d).
const (
	unlockCliff    = 0.2
	unlockHeavy    = 0.1
	unlockModerate = 0.05
)

func contractControlScore(d *models.TokenData) float64 {
	if !d.HasSecurityScan() {
		return 60 // nothing scanned: assume meaningful control risk
	}
	if len(d.Security.Checks) == 0 {
		return 10
	}
	return clamp(d.Security.Score, 0, 100)
}

func supplyDilutionScore(d *models.TokenData) float64 {
	if d.TotalSupply <= 0 {
		return unknownModerate
	}
	ratio := d.CirculatingSupply / d.TotalSupply
	var score float64
	switch {
	case ratio >= supplyMostlyCirculating:
		score = 10
	case ratio >= supplyLargelyOut:
		score = 30
	case ratio >= supplyHalfOut:
		score = 50
	case ratio >= supplyMostlyLocked:
		score = 70
	default:
		score = 90
	}
	if d.MaxSupply == nil {
		score += 15 // uncapped supply
	}
	return clamp(score, 0, 100)
}

func holderConcentrationScore(d *models.TokenData) float64 {
	top10 := d.Top10HoldersPct
	if top10 <= 0 && !d.Top10Measured {
		return unknownModerate
	}
	var score float64
	switch {
	case top10 <= concentrationDispersed:
		score = 15
	case top10 <= concentrationLight:
		score = 35
	case top10 <= concentrationModerate:
		score = 55
	case top10 <= concentrationHeavy:
		score = 75
	default:
		score = 90
	}
	if d.Top10Measured {
		if d.HolderCount > 0 && d.HolderCount < 50 {
			score += 10
		}
		if d.HolderCount > 10_000 {
			score -= 10
		}
	}
	return clamp(score, 0, 100)
}

func liquidityDepthScore(d *models.TokenData) float64 {
	liq := d.LiquidityUSD
	var score float64
	switch {
	case liq <= 0:
		score = 95
	case liq < liquidityDust:
		score = 85
	case liq < liquidityThin:
		score = 65
	case liq < liquidityWorking:
		score = 45
	case liq < liquidityDeep:
		score = 30
	default:
		score = 15
	}
	// Deep-sounding liquidity that is tiny next to the market cap still
	// cannot absorb an exit.
	if liq > 0 && d.MarketCap > 0 && liq/d.MarketCap < 0.01 {
		score += 10
	}
	return clamp(score, 0, 100)
}

func vestingUnlockScore(d *models.TokenData) float64 {
	if d.NextUnlock30dPct == nil {
		return unknownVesting
	}
	unlock := *d.NextUnlock30dPct
	switch {
	case unlock > unlockCliff:
		return 90
	case unlock > unlockHeavy:
		return 70
	case unlock > unlockModerate:
		return 50
	default:
		return 25
	}
}

func taxFeeScore(d *models.TokenData) float64 {
	if d.BuyTax == nil && d.SellTax == nil {
		if d.Chain == models.ChainEVM {
			return unknownModerate // EVM tokens without tax data were not scanned
		}
		return 15 // non-EVM chains have no tax mechanism
	}
	tax := 0.0
	if d.BuyTax != nil && *d.BuyTax > tax {
		tax = *d.BuyTax
	}
	if d.SellTax != nil && *d.SellTax > tax {
		tax = *d.SellTax
	}
	var score float64
	switch {
	case tax > taxExtreme:
		score = 95
	case tax > taxSevere:
		score = 80
	case tax > taxHigh:
		score = 60
	case tax > taxNoticeable:
		score = 40
	case tax > 0:
		score = 25
	default:
		score = 10
	}
	if d.TaxModifiable != nil && *d.TaxModifiable {
		score += 10
	}
	return clamp(score, 0, 100)
}

func distributionScore(d *models.TokenData) float64 {
	switch n := d.HolderCount; {
	case n <= 0:
		return 60
	case n < 100:
		return 85
	case n < 1_000:
		return 65
	case n < 10_000:
		return 45
	case n < 100_000:
		return 25
	default:
		return 10
	}
}

func burnDeflationScore(d *models.TokenData) float64 {
	switch burned := d.BurnedPct; {
	case burned >= 0.5:
		return 5
	case burned >= 0.2:
		return 15
	case burned >= 0.05:
		return 30
	case burned > 0:
		return 40
	default:
		return 55
	}
}

func adoptionScore(d *models.TokenData) float64 {
	switch tx := d.TxCount24h; {
	case tx <= 0:
		return 90
	case tx < 10:
		return 75
	case tx < 100:
		return 55
	case tx < 1_000:
		return 35
	default:
		return 15
	}
}

func auditTransparencyScore(d *models.TokenData) float64 {
	if d.IsOpenSource == nil {
		return unknownAudit
	}
	if *d.IsOpenSource {
		return 20
	}
	return 80
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
