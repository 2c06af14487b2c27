package seer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// MaxStatsItems limits the words and collocations listed in the
// analysis section.
var MaxStatsItems = 10

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename makes a file name (without extension) from a page title.
func Filename(title string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(title, "_"), "_")
	if name == "" {
		name = "untitled"
	}
	return name
}

func mdLink(l core.Link) string {
	text := strings.NewReplacer("[", `\[`, "]", `\]`).Replace(l.Text)
	return fmt.Sprintf("[%s](%s)", text, l.URL)
}

func mdLinks(w io.Writer, heading string, ls core.Links) {
	if len(ls) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s\n\n", heading)
	for _, l := range ls {
		fmt.Fprintf(w, "- %s\n", mdLink(l))
	}
	fmt.Fprintf(w, "\n")
}

// WriteMarkdown writes the page as a Markdown document.
//
// Sections: contents, paragraphs with their links, see also,
// references, media, and the analysis when the page has one.
func WriteMarkdown(w io.Writer, p *core.Page) error {
	if p == nil {
		return core.NoSelection
	}
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	f("# %s\n", p.Title)
	f("<%s>\n", p.URL)

	mdLinks(w, "Contents", p.TOCLinks)

	for i, para := range p.Paragraphs {
		f("%s\n", strings.TrimSpace(para))
		if i < len(p.ParagraphLinks) && 0 < len(p.ParagraphLinks[i]) {
			ls := make([]string, len(p.ParagraphLinks[i]))
			for j, l := range p.ParagraphLinks[i] {
				ls[j] = mdLink(l)
			}
			f("> %s\n", strings.Join(ls, " · "))
		}
	}

	mdLinks(w, "See also", p.SeeAlso)
	mdLinks(w, "References", p.References)

	if 0 < len(p.Media) {
		f("## Media\n")
		for _, m := range p.Media {
			f("- <%s>", m)
		}
		f("")
	}

	if s := p.Stats; s != nil {
		f("## Analysis\n")
		if 0 < len(s.Frequencies) {
			f("| word | count |")
			f("|---|---|")
			for i, fr := range s.Frequencies {
				if MaxStatsItems <= i {
					break
				}
				f("| %s | %d |", fr.Word, fr.Count)
			}
			f("")
		}
		for i, c := range s.Collocations {
			if MaxStatsItems <= i {
				break
			}
			f("- %s", c)
		}
	}

	return nil
}

// Markdown renders the page as a Markdown document.
func Markdown(p *core.Page) (string, error) {
	var b strings.Builder
	if err := WriteMarkdown(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}
