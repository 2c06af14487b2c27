// Package testutil has stand-in collaborators and fixture pages for tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// WikiURL makes a Wikipedia URL for the given title.
func WikiURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(title, " ", "_")
}

// StarPage is a small page with known collocations.
func StarPage() *core.Page {
	return &core.Page{
		URL:   WikiURL("Star"),
		Title: "Star",
		Paragraphs: []string{
			"A star is a luminous spheroid of plasma. The nearest star to Earth is the Sun.",
			"A red giant is a late stage of a star. The main sequence is where a star spends most of its life.",
		},
		ParagraphLinks: []core.Links{
			{{Text: "plasma", URL: WikiURL("Plasma (physics)")}, {Text: "Sun", URL: WikiURL("Sun")}},
			{{Text: "red giant", URL: WikiURL("Red giant")}},
		},
		SeeAlso: core.Links{
			{Text: "Sun", URL: WikiURL("Sun")},
			{Text: "Red giant", URL: WikiURL("Red giant")},
		},
		Stats: &core.Stats{
			Frequencies: []core.Frequency{
				{Word: "star", Count: 4},
				{Word: "giant", Count: 1},
				{Word: "sun", Count: 1},
			},
			Collocations: []core.Collocation{
				{"red", "giant"},
				{"main", "sequence"},
			},
		},
	}
}

// SimplePage makes a page with the given title and text and no
// analysis.
func SimplePage(title string, paragraphs ...string) *core.Page {
	return &core.Page{
		URL:        WikiURL(title),
		Title:      title,
		Paragraphs: paragraphs,
	}
}

// Source is an in-memory stand-in for the Wikipedia crawler.
type Source struct {
	// Pages are retrievable by URL.
	Pages map[string]*core.Page

	// Results are returned for exact search phrases.
	Results map[string][]core.SearchResult

	// SearchErr, if not nil, is returned by every Search.
	SearchErr error

	Searches  []string
	Retrieved []string
}

// NewSource makes an empty Source.
func NewSource() *Source {
	return &Source{
		Pages:   make(map[string]*core.Page),
		Results: make(map[string][]core.SearchResult),
	}
}

// Add makes the pages retrievable.
func (s *Source) Add(ps ...*core.Page) *Source {
	for _, p := range ps {
		s.Pages[p.URL] = p
	}
	return s
}

// Direct makes the phrase resolve to exactly one page.
func (s *Source) Direct(phrase string, p *core.Page) *Source {
	s.Add(p)
	s.Results[phrase] = []core.SearchResult{{Ref: core.Resolved{Page: p}}}
	return s
}

// Ambiguous makes the phrase resolve to a labeled list of deferred
// references.
func (s *Source) Ambiguous(phrase string, ps ...*core.Page) *Source {
	acc := make([]core.SearchResult, 0, len(ps))
	for _, p := range ps {
		s.Add(p)
		url := p.URL
		acc = append(acc, core.SearchResult{
			Label: p.Title,
			Ref: core.Deferred{
				URL: url,
				Fetch: func(ctx context.Context) (*core.Page, error) {
					return s.Retrieve(ctx, url)
				},
			},
		})
	}
	s.Results[phrase] = acc
	return s
}

func (s *Source) Search(ctx context.Context, phrase string, precache bool) ([]core.SearchResult, error) {
	s.Searches = append(s.Searches, phrase)
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	rs := s.Results[phrase]
	if !precache {
		return rs, nil
	}
	acc := make([]core.SearchResult, len(rs))
	for i, r := range rs {
		p, err := core.Resolve(ctx, r.Ref)
		if err != nil {
			return nil, err
		}
		acc[i] = core.SearchResult{Label: r.Label, Ref: core.Resolved{Page: p}}
	}
	return acc, nil
}

func (s *Source) Retrieve(ctx context.Context, url string) (*core.Page, error) {
	s.Retrieved = append(s.Retrieved, url)
	p, have := s.Pages[url]
	if !have {
		return nil, fmt.Errorf("no page at %s", url)
	}
	return p, nil
}

// Analyzer is a stand-in analyzer that counts whitespace-separated
// words.
type Analyzer struct {
	// Stats, by title, override counting.
	Stats map[string]*core.Stats

	Analyzed []string
	Shown    []string
}

// NewAnalyzer makes an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Stats: make(map[string]*core.Stats),
	}
}

func (a *Analyzer) Analyze(p *core.Page) (*core.Stats, error) {
	a.Analyzed = append(a.Analyzed, p.Title)
	if st, have := a.Stats[p.Title]; have {
		return st, nil
	}
	counts := make(map[string]int)
	order := make([]string, 0, 32)
	for _, w := range strings.Fields(strings.ToLower(p.Text())) {
		w = strings.Trim(w, ".,;:!?")
		if w == "" {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	fs := make([]core.Frequency, len(order))
	for i, w := range order {
		fs[i] = core.Frequency{Word: w, Count: counts[w]}
	}
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[j].Count < fs[i].Count
	})
	return &core.Stats{
		Frequencies:  fs,
		Collocations: []core.Collocation{},
	}, nil
}

func (a *Analyzer) Sentences(p *core.Page) []string {
	acc := make([]string, 0, 8)
	for _, para := range p.Paragraphs {
		for _, s := range strings.SplitAfter(para, ". ") {
			if s = strings.TrimSpace(s); s != "" {
				acc = append(acc, s)
			}
		}
	}
	return acc
}

func (a *Analyzer) Show(w io.Writer, p *core.Page, amount float64) error {
	a.Shown = append(a.Shown, p.Title)
	_, err := fmt.Fprintf(w, "%s (%v)\n", p.Title, amount)
	return err
}
