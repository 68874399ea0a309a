package risk

// Weights assigns each factor its share of the composite score. The
// canonical table sums to 100, with contract control heaviest: a
// honeypot flag must dominate any amount of healthy market data.
type Weights struct {
	ContractControl     float64
	SupplyDilution      float64
	HolderConcentration float64
	LiquidityDepth      float64
	VestingUnlock       float64
	TaxFee              float64
	Distribution        float64
	BurnDeflation       float64
	Adoption            float64
	AuditTransparency   float64
}

// DefaultWeights 标准权重表
func DefaultWeights() Weights {
	return Weights{
		ContractControl:     25,
		SupplyDilution:      20,
		HolderConcentration: 15,
		LiquidityDepth:      10,
		VestingUnlock:       8,
		TaxFee:              7,
		Distribution:        5,
		BurnDeflation:       4,
		Adoption:            3,
		AuditTransparency:   3,
	}
}

// memeAdjusted shifts weight from tokenomics factors toward holder and
// liquidity behavior, which is where meme tokens actually fail.
func (w Weights) memeAdjusted() Weights {
	w.HolderConcentration += 5
	w.LiquidityDepth += 5
	w.SupplyDilution -= 5
	w.VestingUnlock -= 5
	return w
}

func (w Weights) total() float64 {
	return w.ContractControl + w.SupplyDilution + w.HolderConcentration +
		w.LiquidityDepth + w.VestingUnlock + w.TaxFee +
		w.Distribution + w.BurnDeflation + w.Adoption + w.AuditTransparency
}
