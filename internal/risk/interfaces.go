package risk

import (
	"github.com/songzhibin97/tokenlab/internal/models"
)

// Scorer turns a fetched token record into a risk verdict.
type Scorer interface {
	Score(data *models.TokenData, opts Options) (*models.RiskResult, error)
}

// Options 单次评分的附加输入
type Options struct {
	// Classification is the meme/official verdict, when the pipeline
	// ran one. nil means unclassified.
	Classification *models.Classification

	// IsOfficial marks a verified major-project token; it feeds the
	// allow-list adjustment.
	IsOfficial bool
}
