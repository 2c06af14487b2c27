package analysis

import (
	"bytes"
	"testing"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWords(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())
	words, err := a.Words("In 1990, Stars shine.")
	require.NoError(t, err)
	assert.Equal(t, []string{"in", "stars", "shine"}, words)
}

func TestFrequencies(t *testing.T) {
	a := NewAnalyzer(nil)
	p := &core.Page{
		Title:      "Star",
		Paragraphs: []string{"The star and the sun.", "A star is a star; the sun is a star too."},
	}
	st, err := a.Analyze(p)
	require.NoError(t, err)

	top, ok := st.Top()
	require.True(t, ok)
	assert.Equal(t, "star", top)
	assert.Equal(t, 4, st.Frequencies[0].Count)
	assert.Equal(t, core.Frequency{Word: "sun", Count: 2}, st.Frequencies[1])
	for _, f := range st.Frequencies {
		assert.NotContains(t, Filler, f.Word)
	}
}

func TestBigrams(t *testing.T) {
	a := NewAnalyzer(nil)
	p := &core.Page{
		Title: "Red giant",
		Paragraphs: []string{
			"The red giant glows. A red giant burns. Red giant stars expand. Blue dwarf appears once.",
		},
	}
	st, err := a.Analyze(p)
	require.NoError(t, err)
	require.NotEmpty(t, st.Collocations)
	assert.Equal(t, "red giant", st.Collocations[0].String())
	for _, c := range st.Collocations {
		for _, w := range []string{c[0], c[len(c)-1]} {
			assert.GreaterOrEqual(t, len(w), 3, c.String())
		}
	}
}

func TestTrigrams(t *testing.T) {
	a := NewAnalyzer(nil)
	p := &core.Page{
		Title: "Main sequence",
		Paragraphs: []string{
			"Main sequence star one. Main sequence star two. Main sequence star three.",
		},
	}
	st, err := a.Analyze(p)
	require.NoError(t, err)
	phrases := st.Phrases()
	require.NotEmpty(t, phrases)
	assert.Equal(t, "main sequence star", phrases[len(phrases)-1])
	assert.Contains(t, phrases, "main sequence")
}

func TestEmptyPage(t *testing.T) {
	a := NewAnalyzer(nil)
	st, err := a.Analyze(&core.Page{Title: "Empty"})
	require.NoError(t, err)
	assert.Empty(t, st.Frequencies)
	assert.Empty(t, st.Collocations)
}

func TestSentences(t *testing.T) {
	a := NewAnalyzer(nil)
	p := &core.Page{
		Paragraphs: []string{"A star shines. The sun is a star.", "Planets orbit stars."},
	}
	assert.Equal(t, []string{"A star shines.", "The sun is a star.", "Planets orbit stars."}, a.Sentences(p))
}

func TestCount(t *testing.T) {
	tests := []struct {
		amount float64
		n      int
		want   int
	}{
		{0.1, 20, 2},
		{0.1, 5, 1},
		{1, 7, 7},
		{0, 7, 0},
		{3, 7, 3},
		{30, 7, 7},
		{2.5, 7, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Count(tt.amount, tt.n), "%+v", tt)
	}
}

func TestPolarity(t *testing.T) {
	s := DefaultSentiment()
	assert.Same(t, s, NewAnalyzer(nil).Sentiment)

	assert.Positive(t, s.Polarity("A great success."))
	assert.Negative(t, s.Polarity("The war was a disaster."))
	assert.Equal(t, 0.0, s.Polarity("The star is large."))

	// Words missing from a small word list still carry a score.
	assert.Negative(t, s.Polarity("The famine was horrible and tragic."))
	assert.InDelta(t, 0, s.Polarity("A star orbits the sun."), 1e-9)
	for _, sent := range []string{"Stars are beautiful.", "It was a terrible, catastrophic collapse."} {
		p := s.Polarity(sent)
		assert.True(t, -1 <= p && p <= 1, "%q: %v", sent, p)
	}
}

func TestShow(t *testing.T) {
	color.NoColor = true
	a := NewAnalyzer(nil)
	p := &core.Page{
		URL:        "https://en.wikipedia.org/wiki/Star",
		Title:      "Star",
		Paragraphs: []string{"A star shines. The sun is a star.", "Planets orbit stars."},
		Stats: &core.Stats{
			Frequencies:  []core.Frequency{{Word: "star", Count: 2}},
			Collocations: []core.Collocation{{"red", "giant"}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, a.Show(&buf, p, 2))
	out := buf.String()
	assert.Contains(t, out, "Star\n")
	assert.Contains(t, out, "star(2)")
	assert.Contains(t, out, "red giant")
	assert.Contains(t, out, "The sun is a star.")
	assert.NotContains(t, out, "Planets")
}

func TestShowColorsBySentiment(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	a := NewAnalyzer(nil)
	p := &core.Page{
		Title:      "Mixed",
		Paragraphs: []string{"It was a great success. It was a terrible disaster. The sun rose in the east."},
	}
	var buf bytes.Buffer
	require.NoError(t, a.Show(&buf, p, 3))
	out := buf.String()
	assert.Contains(t, out, "\x1b[32mIt was a great success.")
	assert.Contains(t, out, "\x1b[31mIt was a terrible disaster.")
	assert.Contains(t, out, "\nThe sun rose in the east.")
}
