package core

import (
	"context"
	"fmt"
	"strings"
)

// Link is a labeled URL found on a page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Links is an ordered mapping from label to URL.
//
// The order is document order, and index-based commands use that
// order.
type Links []Link

// Labels returns the link texts in order.
func (ls Links) Labels() []string {
	acc := make([]string, len(ls))
	for i, l := range ls {
		acc[i] = l.Text
	}
	return acc
}

// Get returns the URL of the first link with the given label.
func (ls Links) Get(label string) (string, bool) {
	for _, l := range ls {
		if l.Text == label {
			return l.URL, true
		}
	}
	return "", false
}

// At returns the link at position i.
func (ls Links) At(what string, i int) (Link, error) {
	if i < 0 || len(ls) <= i {
		return Link{}, &IndexError{
			What:  what,
			Index: i,
			Len:   len(ls),
		}
	}
	return ls[i], nil
}

// Add appends a link unless the same label and URL is already
// present.
func (ls Links) Add(text, url string) Links {
	for _, l := range ls {
		if l.Text == text && l.URL == url {
			return ls
		}
	}
	return append(ls, Link{Text: text, URL: url})
}

// Frequency is a word and its count in a page's text.
type Frequency struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Collocation is a statistically notable phrase as a word tuple.
type Collocation []string

func (c Collocation) String() string {
	return strings.Join(c, " ")
}

// Stats is the result of analyzing a page.
type Stats struct {
	// Frequencies is ranked by count, highest first.  Ties keep
	// the order of first occurrence.
	Frequencies []Frequency `json:"frequencies"`

	// Collocations is ranked best-first.
	Collocations []Collocation `json:"collocations"`
}

// Top returns the word with the highest frequency.
func (s *Stats) Top() (string, bool) {
	if s == nil || len(s.Frequencies) == 0 {
		return "", false
	}
	return s.Frequencies[0].Word, true
}

// Words returns the frequency words in rank order.
func (s *Stats) Words() []string {
	if s == nil {
		return nil
	}
	acc := make([]string, len(s.Frequencies))
	for i, f := range s.Frequencies {
		acc[i] = f.Word
	}
	return acc
}

// Phrases returns the collocations as space-joined phrases in rank
// order.
func (s *Stats) Phrases() []string {
	if s == nil {
		return nil
	}
	acc := make([]string, len(s.Collocations))
	for i, c := range s.Collocations {
		acc[i] = c.String()
	}
	return acc
}

// Page is a fetched and parsed Wikipedia article.
//
// A Page is not modified once it has been registered with a Session.
type Page struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Paragraphs     []string `json:"paragraphs"`
	ParagraphLinks []Links  `json:"paragraph_links"`
	SeeAlso        Links    `json:"see_also"`
	TOCLinks       Links    `json:"toc_links"`
	References     Links    `json:"references"`
	Media          []string `json:"media,omitempty"`
	Stats          *Stats   `json:"stats,omitempty"`
}

func (p *Page) String() string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprintf("%s <%s>", p.Title, p.URL)
}

// Text returns all paragraphs joined by blank lines.
func (p *Page) Text() string {
	return strings.Join(p.Paragraphs, "\n\n")
}

// PageRef is either a Resolved page or a Deferred fetch of one.
//
// Use a type switch or Resolve.
type PageRef interface {
	pageRef()
}

// Resolved is a PageRef that already holds its Page.
type Resolved struct {
	Page *Page
}

// Deferred is a PageRef that fetches its Page when forced.
type Deferred struct {
	URL   string
	Fetch func(ctx context.Context) (*Page, error)
}

func (Resolved) pageRef() {}
func (Deferred) pageRef() {}

// Resolve forces the given reference.
func Resolve(ctx context.Context, ref PageRef) (*Page, error) {
	switch vv := ref.(type) {
	case Resolved:
		if vv.Page == nil {
			return nil, &UserError{Msg: "empty page reference"}
		}
		return vv.Page, nil
	case Deferred:
		if vv.Fetch == nil {
			return nil, &UserError{Msg: "deferred reference to " + vv.URL + " has no fetcher"}
		}
		return vv.Fetch(ctx)
	case nil:
		return nil, &UserError{Msg: "nil page reference"}
	default:
		return nil, fmt.Errorf("unknown page reference %T", ref)
	}
}

// SearchResult is one candidate returned by a search.
type SearchResult struct {
	// Label is empty for a direct (unambiguous) result.
	Label string
	Ref   PageRef
}

// Name returns the label or, lacking one, something that identifies
// the referenced page.
func (r SearchResult) Name() string {
	if r.Label != "" {
		return r.Label
	}
	switch vv := r.Ref.(type) {
	case Resolved:
		if vv.Page != nil {
			return vv.Page.Title
		}
	case Deferred:
		return vv.URL
	}
	return "?"
}
