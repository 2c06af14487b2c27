package arbiter

import (
	"context"
	"io"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// Source finds and fetches pages.
type Source interface {
	// Search returns candidate pages for the phrase.  When
	// precache is false, listed results can be core.Deferred.
	Search(ctx context.Context, phrase string, precache bool) ([]core.SearchResult, error)

	// Retrieve gets the page at the given URL.
	Retrieve(ctx context.Context, url string) (*core.Page, error)
}

// Analyzer computes and displays page statistics.
type Analyzer interface {
	Analyze(p *core.Page) (*core.Stats, error)
	Sentences(p *core.Page) []string

	// Show writes a summary of the analysis.  The amount is a
	// fraction of sentences when at most 1 and a sentence count
	// otherwise.
	Show(w io.Writer, p *core.Page, amount float64) error
}

// Renderer turns pages into documents.
type Renderer interface {
	// Build writes a Markdown document and returns its filename.
	Build(p *core.Page) (string, error)

	// Render returns the page rendered for a terminal.
	Render(p *core.Page) (string, error)

	// HTML writes an HTML document and returns its filename.
	HTML(p *core.Page) (string, error)

	// Graph returns a Graphviz description of the navigation
	// history.
	Graph(s *core.State) (string, error)
}

// Snapshotter persists a Session.
type Snapshotter interface {
	Load(ctx context.Context) (*core.Session, error)
	Save(ctx context.Context, s *core.Session) error
}
