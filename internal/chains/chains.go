// Package chains maps chain identifiers to the chain family that decides
// which security and holder adapters apply to a token.
package chains

import (
	"strings"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// 数字链ID映射表, 覆盖所有已接入的链
var numericIDs = map[string]models.ChainType{
	// Solana aggregator IDs differ between providers.
	"501":        models.ChainSolana,
	"900":        models.ChainSolana,
	"1399811149": models.ChainSolana,

	"1815": models.ChainCardano,

	"1":     models.ChainEVM, // Ethereum
	"56":    models.ChainEVM, // BSC
	"137":   models.ChainEVM, // Polygon
	"43114": models.ChainEVM, // Avalanche
	"250":   models.ChainEVM, // Fantom
	"42161": models.ChainEVM, // Arbitrum
	"10":    models.ChainEVM, // Optimism
	"8453":  models.ChainEVM, // Base
	"324":   models.ChainEVM, // zkSync Era
	"59144": models.ChainEVM, // Linea
	"42220": models.ChainEVM, // Celo
}

var nameAliases = map[string]models.ChainType{
	"solana": models.ChainSolana,
	"sol":    models.ChainSolana,

	"cardano": models.ChainCardano,
	"ada":     models.ChainCardano,

	"eth":       models.ChainEVM,
	"ethereum":  models.ChainEVM,
	"bsc":       models.ChainEVM,
	"bnb":       models.ChainEVM,
	"polygon":   models.ChainEVM,
	"matic":     models.ChainEVM,
	"avalanche": models.ChainEVM,
	"avax":      models.ChainEVM,
	"fantom":    models.ChainEVM,
	"ftm":       models.ChainEVM,
	"arbitrum":  models.ChainEVM,
	"optimism":  models.ChainEVM,
	"base":      models.ChainEVM,
	"zksync":    models.ChainEVM,
	"linea":     models.ChainEVM,
	"celo":      models.ChainEVM,
}

// Resolve maps a chain identifier (numeric ID or name alias, case
// insensitive) to its chain family. Unknown identifiers resolve to
// ChainOther; the resolver is total and never returns an error.
func Resolve(chainID string) models.ChainType {
	id := strings.ToLower(strings.TrimSpace(chainID))
	if id == "" {
		return models.ChainOther
	}
	if ct, ok := numericIDs[id]; ok {
		return ct
	}
	if ct, ok := nameAliases[id]; ok {
		return ct
	}
	return models.ChainOther
}

// Supported reports whether the identifier resolves to a family with a
// dedicated security adapter.
func Supported(chainID string) bool {
	return Resolve(chainID) != models.ChainOther
}
