package models

import "time"

// ChainType 链家族类型
type ChainType string

const (
	ChainEVM     ChainType = "EVM"
	ChainSolana  ChainType = "SOLANA"
	ChainCardano ChainType = "CARDANO"
	ChainOther   ChainType = "OTHER"
)

// DataQuality grades how much of a TokenData record was populated from
// real provider data rather than defaults.
type DataQuality string

const (
	QualityExcellent DataQuality = "EXCELLENT"
	QualityGood      DataQuality = "GOOD"
	QualityModerate  DataQuality = "MODERATE"
	QualityPoor      DataQuality = "POOR"
)

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Severity classifies a single security check finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// SecurityCheck is one discrete finding from a chain-specific security
// adapter. The adapter that produced the check owns its severity; nothing
// downstream re-derives it.
type SecurityCheck struct {
	Name          string   `json:"name"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	Score         float64  `json:"score"`
	ChainSpecific bool     `json:"chain_specific"`
}

// SecurityReport 安全检查结果汇总
type SecurityReport struct {
	Checks        []SecurityCheck `json:"checks"`
	Score         float64         `json:"score"`
	CriticalCount int             `json:"critical_count"`
	WarningCount  int             `json:"warning_count"`
}

// CriticalFlags returns the messages of all CRITICAL checks, in order.
func (r *SecurityReport) CriticalFlags() []string {
	return r.flagsBySeverity(SeverityCritical)
}

// Warnings returns the messages of all WARNING checks, in order.
func (r *SecurityReport) Warnings() []string {
	return r.flagsBySeverity(SeverityWarning)
}

func (r *SecurityReport) flagsBySeverity(sev Severity) []string {
	out := make([]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		if c.Severity == sev {
			out = append(out, c.Message)
		}
	}
	return out
}

// MarketRecord is the partial record produced by a market-data adapter.
// Percentage-like fields are fractions in [0,1]; USD amounts and supplies
// are raw floats. A zero value means the provider did not report the field.
type MarketRecord struct {
	MarketCap         float64  `json:"market_cap"`
	FDV               float64  `json:"fdv"`
	LiquidityUSD      float64  `json:"liquidity_usd"`
	Volume24h         float64  `json:"volume_24h"`
	Price             float64  `json:"price"`
	TotalSupply       float64  `json:"total_supply"`
	CirculatingSupply float64  `json:"circulating_supply"`
	MaxSupply         *float64 `json:"max_supply"` // nil 表示无上限, 不等于 0
	BurnedSupply      float64  `json:"burned_supply"`
	BurnedPct         float64  `json:"burned_pct"` // fraction of total supply
	TxCount24h        int      `json:"tx_count_24h"`
	AgeDays           int      `json:"age_days"`
}

// Empty reports whether the record carries the all-empty condition that
// triggers the secondary market-data fallback.
func (m *MarketRecord) Empty() bool {
	return m.MarketCap == 0 && m.LiquidityUSD == 0 && m.TotalSupply == 0
}

// HolderBalance 单个持仓地址
type HolderBalance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// ChainRecord is the partial record produced by a chain-specific
// security/holder adapter.
type ChainRecord struct {
	HolderCount     int             `json:"holder_count"`
	Top10HoldersPct float64         `json:"top10_holders_pct"` // fraction 0-1
	Top10Measured   bool            `json:"top10_measured"`    // false = sentinel default, not real data
	Top1HolderPct   float64         `json:"top1_holder_pct"`   // fraction 0-1, 0 when unknown
	TopHolders      []HolderBalance `json:"top_holders,omitempty"`
	Security        SecurityReport  `json:"security"`
	PositiveSignals []string        `json:"positive_signals,omitempty"`

	// EVM scanner extras. Pointers keep "unknown" distinct from a
	// measured false/zero.
	IsHoneypot     *bool    `json:"is_honeypot,omitempty"`
	IsMintable     *bool    `json:"is_mintable,omitempty"`
	IsOpenSource   *bool    `json:"is_open_source,omitempty"`
	OwnerRenounced *bool    `json:"owner_renounced,omitempty"`
	BuyTax         *float64 `json:"buy_tax,omitempty"`  // fraction 0-1
	SellTax        *float64 `json:"sell_tax,omitempty"` // fraction 0-1
	TaxModifiable  *bool    `json:"tax_modifiable,omitempty"`
	LPLocked       *bool    `json:"lp_locked,omitempty"`

	// Solana authority flags.
	FreezeAuthority *bool `json:"freeze_authority,omitempty"`
	MintAuthority   *bool `json:"mint_authority,omitempty"`
}

// TokenData 归一化后的完整代币数据, 一次评分请求的聚合结果
type TokenData struct {
	Address string    `json:"address"`
	Symbol  string    `json:"symbol,omitempty"`
	Name    string    `json:"name,omitempty"`
	ChainID string    `json:"chain_id"`
	Chain   ChainType `json:"chain"`

	MarketRecord
	ChainRecord

	// Estimation flags: true when the value was synthesized rather than
	// sourced from a provider.
	TxCount24hEstimated bool `json:"tx_count_24h_is_estimated"`
	AgeDaysEstimated    bool `json:"age_days_is_estimated"`

	// Vesting data, when the market provider reports it.
	NextUnlock30dPct *float64 `json:"next_unlock_30d_pct,omitempty"` // fraction 0-1
	TeamVestingM     *int     `json:"team_vesting_months,omitempty"`
	TeamAllocPct     *float64 `json:"team_allocation_pct,omitempty"` // fraction 0-1

	DataQuality DataQuality `json:"data_quality"`
	DataSources []string    `json:"data_sources"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// HasSecurityScan reports whether a chain-specific scanner contributed
// real data, as opposed to the stub default record.
func (t *TokenData) HasSecurityScan() bool {
	return len(t.Security.Checks) > 0 || t.IsHoneypot != nil || t.FreezeAuthority != nil
}

// Top-10 concentration sentinels. 0.5 means unknown, assume moderate;
// 0.65 means unknown, assume concentrated (unsupported chains).
const (
	Top10UnknownModerate     = 0.5
	Top10UnknownConcentrated = 0.65
)

// RiskBreakdown holds the ten per-factor sub-scores, each 0-100 with
// higher = riskier.
type RiskBreakdown struct {
	SupplyDilution      float64 `json:"supply_dilution"`
	HolderConcentration float64 `json:"holder_concentration"`
	LiquidityDepth      float64 `json:"liquidity_depth"`
	VestingUnlock       float64 `json:"vesting_unlock"`
	ContractControl     float64 `json:"contract_control"`
	TaxFee              float64 `json:"tax_fee"`
	Distribution        float64 `json:"distribution"`
	BurnDeflation       float64 `json:"burn_deflation"`
	Adoption            float64 `json:"adoption"`
	AuditTransparency   float64 `json:"audit_transparency"`
}

// Map returns the breakdown keyed by factor name, for API responses.
func (b RiskBreakdown) Map() map[string]float64 {
	return map[string]float64{
		"supply_dilution":      b.SupplyDilution,
		"holder_concentration": b.HolderConcentration,
		"liquidity_depth":      b.LiquidityDepth,
		"vesting_unlock":       b.VestingUnlock,
		"contract_control":     b.ContractControl,
		"tax_fee":              b.TaxFee,
		"distribution":         b.Distribution,
		"burn_deflation":       b.BurnDeflation,
		"adoption":             b.Adoption,
		"audit_transparency":   b.AuditTransparency,
	}
}

// Classification 代币类型判定结果
type Classification struct {
	IsMeme         bool   `json:"is_meme"`
	Confidence     int    `json:"confidence"` // 0-100
	Reasoning      string `json:"reasoning"`
	ManualOverride bool   `json:"manual_override"`
}

// RiskResult is the terminal artifact of a scoring request. Immutable
// once produced.
type RiskResult struct {
	OverallRiskScore int                `json:"overall_risk_score"` // 0-100
	RiskLevel        RiskLevel          `json:"risk_level"`
	ConfidenceScore  int                `json:"confidence_score"` // 0-100, independent of the risk score
	Breakdown        map[string]float64 `json:"breakdown"`
	CriticalFlags    []string           `json:"critical_flags"`
	WarningFlags     []string           `json:"warning_flags"`
	PositiveSignals  []string           `json:"positive_signals"`
	DataSources      []string           `json:"data_sources"`
	Classification   *Classification    `json:"classification,omitempty"`
	OverrideApplied  bool               `json:"override_applied"`
	OverrideReason   string             `json:"override_reason,omitempty"`
	AnalyzedAt       time.Time          `json:"analyzed_at"`
}

// ChartQuality extends DataQuality with the explicit UNAVAILABLE marker
// used by the historical chart pipeline.
type ChartQuality string

const (
	ChartExcellent   ChartQuality = "EXCELLENT"
	ChartGood        ChartQuality = "GOOD"
	ChartModerate    ChartQuality = "MODERATE"
	ChartPoor        ChartQuality = "POOR"
	ChartUnavailable ChartQuality = "UNAVAILABLE"
)

// HistoricalChartData 历史行情数据, 两级回退后的统一结构
type HistoricalChartData struct {
	Labels         []time.Time  `json:"labels"`
	Opens          []float64    `json:"opens"`
	Highs          []float64    `json:"highs"`
	Lows           []float64    `json:"lows"`
	Closes         []float64    `json:"closes"`
	Volumes        []float64    `json:"volumes,omitempty"`
	Source         string       `json:"source"`
	Quality        ChartQuality `json:"data_quality"`
	PriceCount     int          `json:"price_count"`
	PriceChange    float64      `json:"price_change_percent"`
	Volatility     float64      `json:"volatility"` // stddev(closes)/mean(closes)*100
	VolatilityRisk float64      `json:"volatility_risk"`
	TimeSpanDays   int          `json:"time_span_days"`
	FetchedAt      time.Time    `json:"fetched_at"`
	Warnings       []string     `json:"warnings"`
}

// Valid reports whether the chart carries usable price data.
func (h *HistoricalChartData) Valid() bool {
	return h.Quality != ChartUnavailable && len(h.Closes) > 0 && len(h.Labels) == len(h.Closes)
}
