package seer

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/charmbracelet/glamour"
	md "github.com/russross/blackfriday/v2"
	"go.uber.org/zap"
)

// Seer writes documents under Dir.
type Seer struct {
	Dir string

	// Style is a glamour style name or path.  "auto" picks one
	// for the terminal.
	Style string

	// Width is the word wrap of terminal rendering.
	Width int

	// CSS files are linked from HTML documents.
	CSS []string

	logger *zap.Logger
}

// New makes a Seer that writes to the given directory.
func New(dir string, logger *zap.Logger) *Seer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seer{
		Dir:    dir,
		Style:  "auto",
		Width:  80,
		logger: logger.Named("seer"),
	}
}

func (s *Seer) write(name string, bs []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}
	filename := filepath.Join(s.Dir, name)
	if err := os.WriteFile(filename, bs, 0644); err != nil {
		return "", err
	}
	s.logger.Debug("wrote", zap.String("filename", filename), zap.Int("bytes", len(bs)))
	return filename, nil
}

// Build writes the page as Markdown and returns the filename.
func (s *Seer) Build(p *core.Page) (string, error) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, p); err != nil {
		return "", err
	}
	return s.write(Filename(p.Title)+".md", buf.Bytes())
}

// Render returns the page rendered for a terminal.
func (s *Seer) Render(p *core.Page) (string, error) {
	src, err := Markdown(p)
	if err != nil {
		return "", err
	}
	style := glamour.WithAutoStyle()
	if s.Style != "auto" && s.Style != "" {
		style = glamour.WithStylePath(s.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(s.Width))
	if err != nil {
		return "", err
	}
	return r.Render(src)
}

// HTML writes the page as an HTML document and returns the filename.
func (s *Seer) HTML(p *core.Page) (string, error) {
	var buf bytes.Buffer
	if err := s.WriteHTML(&buf, p); err != nil {
		return "", err
	}
	return s.write(Filename(p.Title)+".html", buf.Bytes())
}

// WriteHTML writes a complete HTML document for the page.
func (s *Seer) WriteHTML(out io.Writer, p *core.Page) error {
	src, err := Markdown(p)
	if err != nil {
		return err
	}
	title := html.EscapeString(p.Title)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)
	for _, css := range s.CSS {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(css))
	}
	fmt.Fprintf(out, `  </head>
  <body>
<div class="page doc">%s</div>
  </body>
</html>
`, md.Run([]byte(src)))

	return nil
}

// Graph returns a Graphviz description of the navigation history.
func (s *Seer) Graph(st *core.State) (string, error) {
	var buf bytes.Buffer
	if err := Dot(st, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
