package analysis

import (
	"sync"

	"github.com/jonreiter/govader"
)

// Sentiment scores sentence polarity with VADER.
type Sentiment struct {
	sia *govader.SentimentIntensityAnalyzer
}

var (
	sharedSentiment *Sentiment
	sentimentOnce   sync.Once
)

// DefaultSentiment returns a Sentiment shared by all Analyzers.
//
// The VADER lexicon is loaded on first use.
func DefaultSentiment() *Sentiment {
	sentimentOnce.Do(func() {
		sharedSentiment = &Sentiment{
			sia: govader.NewSentimentIntensityAnalyzer(),
		}
	})
	return sharedSentiment
}

// Polarity is the VADER compound score of the sentence, in [-1,1].
//
// Sentences without any sentiment-bearing words score 0.
func (s *Sentiment) Polarity(sentence string) float64 {
	return s.sia.PolarityScores(sentence).Compound
}
