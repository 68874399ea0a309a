package providers

import "github.com/songzhibin97/tokenlab/internal/models"

// Canonical check names. Every adapter emits findings under one of
// these so scores stay consistent across chain families.
const (
	CheckHoneypot        = "honeypot"
	CheckCannotBuy       = "cannot_buy"
	CheckFreezeAuthority = "freeze_authority"
	CheckExtremeSellTax  = "extreme_sell_tax"
	CheckActiveMinting   = "active_minting_policy"
	CheckMintAuthority   = "mint_authority"
	CheckProxyContract   = "proxy_contract"
	CheckHighBuyTax      = "high_buy_tax"
	CheckTradingCooldown = "trading_cooldown"
	CheckUpdateAuthority = "update_authority"
	CheckOwnerPresent    = "owner_present"
	CheckClosedSource    = "closed_source"
	CheckNoData          = "no_security_data"
)

// severityScores 各检查项的固定风险分值
var severityScores = map[string]float64{
	CheckHoneypot:        95,
	CheckCannotBuy:       95,
	CheckFreezeAuthority: 90,
	CheckExtremeSellTax:  80,
	CheckActiveMinting:   75,
	CheckMintAuthority:   60, // fresh token; drops to 25 WARNING for mature ones
	CheckProxyContract:   35,
	CheckHighBuyTax:      30,
	CheckTradingCooldown: 25,
	CheckClosedSource:    25,
	CheckUpdateAuthority: 20,
	CheckOwnerPresent:    20,
	CheckNoData:          65,
}

// SeverityScore returns the canonical score for a named check. Unknown
// names score 10 so an adapter-local check still registers.
func SeverityScore(name string) float64 {
	if s, ok := severityScores[name]; ok {
		return s
	}
	return 10
}

// NewCheck builds a finding with its canonical score.
func NewCheck(name string, sev models.Severity, msg string, chainSpecific bool) models.SecurityCheck {
	return models.SecurityCheck{
		Name:          name,
		Severity:      sev,
		Message:       msg,
		Score:         SeverityScore(name),
		ChainSpecific: chainSpecific,
	}
}

// NewCheckScored is NewCheck with an explicit score, for checks whose
// weight depends on context (e.g. mint authority on a mature token).
func NewCheckScored(name string, sev models.Severity, msg string, score float64, chainSpecific bool) models.SecurityCheck {
	return models.SecurityCheck{
		Name:          name,
		Severity:      sev,
		Message:       msg,
		Score:         score,
		ChainSpecific: chainSpecific,
	}
}

// BuildReport aggregates ordered findings into a report. The report
// score is the max finding score, not a sum, so one catastrophic
// finding is not diluted by benign ones.
func BuildReport(checks []models.SecurityCheck) models.SecurityReport {
	rep := models.SecurityReport{Checks: checks}
	for _, c := range checks {
		if c.Score > rep.Score {
			rep.Score = c.Score
		}
		switch c.Severity {
		case models.SeverityCritical:
			rep.CriticalCount++
		case models.SeverityWarning:
			rep.WarningCount++
		}
	}
	return rep
}
