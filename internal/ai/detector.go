package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Established project symbols that are never classified as memes, no
// matter what the name looks like.
var officialSymbols = map[string]bool{
	"BTC": true, "ETH": true, "WETH": true, "WBTC": true,
	"USDT": true, "USDC": true, "DAI": true, "BUSD": true,
	"BNB": true, "SOL": true, "ADA": true, "XRP": true,
	"DOT": true, "LINK": true, "MATIC": true, "AVAX": true,
	"UNI": true, "ATOM": true, "LTC": true, "ARB": true, "OP": true,
}

// memePattern 常见meme关键词
var memePattern = regexp.MustCompile(`(?i)(doge|shib|inu|pepe|floki|elon|moon|safemoon|baby|rocket|bonk|wif|chad|wojak|pump|cum|tendies|ape)`)

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Detector runs the three-stage classification: whitelist short
// circuit, keyword patterns, then the AI classifier for ambiguous
// cases. The AI stage is optional and its failure is never fatal.
type Detector struct {
	classifier Classifier
	logger     Logger
}

func NewDetector(classifier Classifier, logger Logger) *Detector {
	return &Detector{classifier: classifier, logger: logger}
}

// Detect classifies the token. A manual override in opts short-circuits
// everything.
func (d *Detector) Detect(ctx context.Context, symbol, name, address string, manualMeme *bool) *models.Classification {
	if manualMeme != nil {
		return &models.Classification{
			IsMeme:         *manualMeme,
			Confidence:     100,
			Reasoning:      "manual override",
			ManualOverride: true,
		}
	}

	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if officialSymbols[sym] {
		return &models.Classification{
			IsMeme:     false,
			Confidence: 95,
			Reasoning:  fmt.Sprintf("%s is an established project symbol", sym),
		}
	}

	if c := patternClassify(symbol, name); c != nil {
		return c
	}

	if d.classifier != nil {
		c, err := d.classifier.ClassifyToken(ctx, symbol, name, address)
		if err == nil && c != nil {
			return c
		}
		if err != nil {
			d.logger.Info("ai classification unavailable, using pattern fallback",
				"symbol", symbol, "err", err)
		}
	}

	// No pattern hit and no AI verdict: assume non-meme with low
	// confidence so the premium never fires on a guess.
	return &models.Classification{
		IsMeme:     false,
		Confidence: 40,
		Reasoning:  "no meme indicators found",
	}
}

// patternClassify returns a verdict only on a keyword hit; ambiguous
// tokens fall through to the next stage.
func patternClassify(symbol, name string) *models.Classification {
	text := symbol + " " + name
	matches := memePattern.FindAllString(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return nil
	}
	conf := 70 + 10*len(matches)
	if conf > 90 {
		conf = 90
	}
	return &models.Classification{
		IsMeme:     true,
		Confidence: conf,
		Reasoning:  fmt.Sprintf("name matches meme keywords: %s", strings.Join(matches, ", ")),
	}
}
