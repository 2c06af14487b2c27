package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Metric scores the similarity of two strings in [0,1].
type Metric = strutil.StringMetric

// TokenSort compares strings after sorting their words, so word order
// doesn't matter.
type TokenSort struct {
	Metric Metric
}

func (t TokenSort) Compare(a, b string) float64 {
	return strutil.Similarity(sortTokens(a), sortTokens(b), t.Metric)
}

func sortTokens(s string) string {
	ws := strings.Fields(strings.ToLower(s))
	sort.Strings(ws)
	return strings.Join(ws, " ")
}

// NewMetric returns the named similarity metric.
//
// "levenshtein" (the default for "") is a normalized edit distance
// over sorted words.  "jaro-winkler" is plain Jaro-Winkler.
func NewMetric(name string) (Metric, error) {
	switch name {
	case "", "levenshtein":
		m := metrics.NewLevenshtein()
		m.CaseSensitive = false
		return TokenSort{Metric: m}, nil
	case "jaro-winkler":
		m := metrics.NewJaroWinkler()
		m.CaseSensitive = false
		return m, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

// DefaultMetric is used when a caller doesn't specify one.
var DefaultMetric, _ = NewMetric("")

// MostSimilar finds the candidate with the highest similarity to the
// given phrase.
//
// The first candidate with the best score wins, so for a fixed list
// the answer is always the same.  An empty list gives NoCandidates.
func MostSimilar(m Metric, phrase string, candidates []string) (string, float64, error) {
	if len(candidates) == 0 {
		return "", 0, NoCandidates
	}
	if m == nil {
		m = DefaultMetric
	}
	var (
		best  = -1
		score = -1.0
	)
	for i, c := range candidates {
		if s := m.Compare(phrase, c); score < s {
			best, score = i, s
		}
	}
	return candidates[best], score, nil
}
