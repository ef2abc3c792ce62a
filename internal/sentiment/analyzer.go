// Package sentiment adapts the VADER analyzer to domain.SentimentScorer.
package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/domain"
)

// Analyzer is safe for concurrent use; the lexicon is read-only after construction.
type Analyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Score implements domain.SentimentScorer. It never fails.
func (a *Analyzer) Score(_ context.Context, text string) (domain.Sentiment, error) {
	observability.ObserveScored()
	return a.Polarity(text), nil
}

// Polarity returns the neg/neu/pos bundle rounded to 3 places and compound to 4.
func (a *Analyzer) Polarity(text string) domain.Sentiment {
	if strings.TrimSpace(text) == "" {
		return domain.Sentiment{}
	}
	s := a.sia.PolarityScores(text)
	return domain.Sentiment{
		Negative: round(s.Negative, 3),
		Neutral:  round(s.Neutral, 3),
		Positive: round(s.Positive, 3),
		Compound: round(s.Compound, 4),
	}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
