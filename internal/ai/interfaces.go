package ai

import (
	"context"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Classifier decides whether a token is a meme token. Implementations
// wrap an LLM; the detector falls back to pattern matching when the
// classifier is unavailable.
type Classifier interface {
	// ClassifyToken judges the token from its symbol, name, and address.
	ClassifyToken(ctx context.Context, symbol, name, address string) (*models.Classification, error)
}
