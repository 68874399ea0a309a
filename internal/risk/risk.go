package risk

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Risk tier boundaries over the 0-100 composite score.
const (
	tierCritical = 75
	tierHigh     = 50
	tierMedium   = 35
)

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Engine is the ten-factor scorer. Construct once and share; Score is
// a pure function over its inputs.
type Engine struct {
	weights  Weights
	adaptive bool
	logger   Logger
}

func NewEngine(weights Weights, adaptive bool, logger Logger) (*Engine, error) {
	if weights.total() <= 0 {
		return nil, fmt.Errorf("risk engine: weight table sums to %.1f", weights.total())
	}
	return &Engine{weights: weights, adaptive: adaptive, logger: logger}, nil
}

// Score computes the composite risk verdict for one token record.
// The confidence figure reflects data coverage only and moves
// independently of the risk score.
func (e *Engine) Score(d *models.TokenData, opts Options) (*models.RiskResult, error) {
	if d == nil {
		return nil, fmt.Errorf("risk engine: nil token data")
	}

	breakdown := models.RiskBreakdown{
		ContractControl:     contractControlScore(d),
		SupplyDilution:      supplyDilutionScore(d),
		HolderConcentration: holderConcentrationScore(d),
		LiquidityDepth:      liquidityDepthScore(d),
		VestingUnlock:       vestingUnlockScore(d),
		TaxFee:              taxFeeScore(d),
		Distribution:        distributionScore(d),
		BurnDeflation:       burnDeflationScore(d),
		Adoption:            adoptionScore(d),
		AuditTransparency:   auditTransparencyScore(d),
	}

	weights := e.weights
	if e.adaptive && opts.Classification != nil && opts.Classification.IsMeme {
		weights = weights.memeAdjusted()
	}

	base := weightedScore(breakdown, weights)
	score, applied := applyOverrides(base, d, opts)

	result := &models.RiskResult{
		OverallRiskScore: score,
		RiskLevel:        Tier(score),
		ConfidenceScore:  confidence(d),
		Breakdown:        breakdown.Map(),
		CriticalFlags:    d.Security.CriticalFlags(),
		WarningFlags:     d.Security.Warnings(),
		PositiveSignals:  d.PositiveSignals,
		DataSources:      d.DataSources,
		Classification:   opts.Classification,
		OverrideApplied:  len(applied) > 0,
		AnalyzedAt:       time.Now(),
	}
	if len(applied) > 0 {
		result.OverrideReason = strings.Join(applied, "; ")
	}

	e.logger.Info("token scored",
		"token", d.Address,
		"chain", d.ChainID,
		"score", score,
		"level", result.RiskLevel,
		"confidence", result.ConfidenceScore,
	)
	return result, nil
}

func weightedScore(b models.RiskBreakdown, w Weights) int {
	sum := b.ContractControl*w.ContractControl +
		b.SupplyDilution*w.SupplyDilution +
		b.HolderConcentration*w.HolderConcentration +
		b.LiquidityDepth*w.LiquidityDepth +
		b.VestingUnlock*w.VestingUnlock +
		b.TaxFee*w.TaxFee +
		b.Distribution*w.Distribution +
		b.BurnDeflation*w.BurnDeflation +
		b.Adoption*w.Adoption +
		b.AuditTransparency*w.AuditTransparency
	return int(math.Round(sum / w.total()))
}

// Tier maps a 0-100 score to its risk tier.
func Tier(score int) models.RiskLevel {
	switch {
	case score >= tierCritical:
		return models.RiskCritical
	case score >= tierHigh:
		return models.RiskHigh
	case score >= tierMedium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// confidence counts how many of the ten factors were fed real data
// rather than a sentinel or band default.
func confidence(d *models.TokenData) int {
	measured := 0
	if d.HasSecurityScan() {
		measured++
	}
	if d.TotalSupply > 0 {
		measured++
	}
	if d.Top10Measured {
		measured++
	}
	if d.LiquidityUSD > 0 {
		measured++
	}
	if d.NextUnlock30dPct != nil {
		measured++
	}
	if d.BuyTax != nil || d.SellTax != nil {
		measured++
	}
	if d.HolderCount > 0 {
		measured++
	}
	if d.BurnedPct > 0 || d.BurnedSupply > 0 {
		measured++
	}
	if d.TxCount24h > 0 && !d.TxCount24hEstimated {
		measured++
	}
	if d.IsOpenSource != nil {
		measured++
	}
	return measured * 10
}
