// Package analysis computes word frequencies, collocations, and
// sentence sentiment for pages.
package analysis

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// Filler words are never counted.
var Filler = []string{
	"at", "their", "been", "which", "on", "was", "also", "from", "we",
	"can", "the", "of", "and", "is", "a", "that", "to", "as", "in",
	"are", "or", "not", "by", "be", "it", "'s", "i", "for", "with",
	"an", "has", "have", "some", "were", "but", "this", "its", "such",
	"who", "his", "her",
}

// Analyzer computes core.Stats for pages.
type Analyzer struct {
	// Bigrams and Trigrams are how many of each to keep.
	Bigrams  int
	Trigrams int

	// TrigramMinFreq drops rarer trigrams.
	TrigramMinFreq int

	// MinWordLen drops bigrams with shorter words.
	MinWordLen int

	// Sentiment scores sentences.
	Sentiment *Sentiment

	stop   map[string]bool
	logger *zap.Logger
}

// NewAnalyzer makes an Analyzer with the usual settings.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	stop := make(map[string]bool, len(Filler))
	for _, w := range Filler {
		stop[w] = true
	}
	return &Analyzer{
		Bigrams:        15,
		Trigrams:       10,
		TrigramMinFreq: 3,
		MinWordLen:     3,
		Sentiment:      DefaultSentiment(),
		stop:           stop,
		logger:         logger.Named("analysis"),
	}
}

// Words tokenizes the text and returns the lower-cased words, without
// punctuation or numbers.
func (a *Analyzer) Words(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}
	acc := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		w := strings.ToLower(tok.Text)
		if isPunct(w) || isNumber(w) {
			continue
		}
		acc = append(acc, w)
	}
	return acc, nil
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	if strings.IndexFunc(s, unicode.IsDigit) < 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

// Analyze computes frequencies and collocations over all of the
// page's paragraphs.
func (a *Analyzer) Analyze(p *core.Page) (*core.Stats, error) {
	words, err := a.Words(p.Text())
	if err != nil {
		return nil, err
	}

	stats := &core.Stats{
		Frequencies:  a.frequencies(words),
		Collocations: append(a.bigrams(words), a.trigrams(words)...),
	}
	a.logger.Debug("analyzed",
		zap.String("title", p.Title),
		zap.Int("words", len(words)),
		zap.Int("frequencies", len(stats.Frequencies)),
		zap.Int("collocations", len(stats.Collocations)))
	return stats, nil
}

func (a *Analyzer) frequencies(words []string) []core.Frequency {
	counts := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if a.stop[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	acc := make([]core.Frequency, len(order))
	for i, w := range order {
		acc[i] = core.Frequency{Word: w, Count: counts[w]}
	}
	sort.SliceStable(acc, func(i, j int) bool {
		return acc[j].Count < acc[i].Count
	})
	return acc
}

// Sentences splits the page's paragraphs into sentences.
func (a *Analyzer) Sentences(p *core.Page) []string {
	acc := make([]string, 0, 4*len(p.Paragraphs))
	for _, para := range p.Paragraphs {
		doc, err := prose.NewDocument(para,
			prose.WithTagging(false),
			prose.WithExtraction(false),
			prose.WithTokenization(false))
		if err != nil {
			a.logger.Warn("segmentation failed", zap.String("title", p.Title), zap.Error(err))
			continue
		}
		for _, s := range doc.Sentences() {
			if t := strings.TrimSpace(s.Text); t != "" {
				acc = append(acc, t)
			}
		}
	}
	return acc
}
