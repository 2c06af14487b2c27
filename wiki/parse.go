package wiki

import (
	"net/url"
	"path"
	"strings"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/PuerkitoBio/goquery"
)

// NoTitle occurs when a document doesn't look like an article.
type NoTitle struct {
	URL string
}

func (e *NoTitle) Error() string {
	return "no article title at " + e.URL
}

// resolver makes hrefs absolute against a page URL.
type resolver struct {
	base *url.URL
}

func newResolver(pageURL string) (*resolver, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &resolver{base: u}, nil
}

func (r *resolver) abs(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return r.base.ResolveReference(u).String()
}

// articleLink reports whether href points at an article rather than
// a File:, Help:, or other namespaced page.
func articleLink(href string) bool {
	if !strings.HasPrefix(href, "/wiki/") {
		return false
	}
	return !strings.Contains(strings.TrimPrefix(href, "/wiki/"), ":")
}

// Parse extracts a Page from an article document.
func Parse(doc *goquery.Document, pageURL string) (*core.Page, error) {
	r, err := newResolver(pageURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("#firstHeading").First().Text())
	if title == "" {
		return nil, &NoTitle{URL: pageURL}
	}

	p := &core.Page{
		URL:            pageURL,
		Title:          title,
		Paragraphs:     make([]string, 0, 16),
		ParagraphLinks: make([]core.Links, 0, 16),
		SeeAlso:        core.Links{},
		TOCLinks:       core.Links{},
		References:     core.Links{},
		Media:          []string{},
	}

	doc.Find(".mw-parser-output p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		links := core.Links{}
		s.Find("a[href]").Each(func(i int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if !articleLink(href) {
				return
			}
			links = links.Add(strings.TrimSpace(a.Text()), r.abs(href))
		})
		p.Paragraphs = append(p.Paragraphs, text)
		p.ParagraphLinks = append(p.ParagraphLinks, links)
	})

	doc.Find("#toc li a, .vector-toc-list-item a").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "#") || href == "#" {
			return
		}
		text := strings.TrimSpace(a.Find(".toctext, .vector-toc-text").First().Text())
		if text == "" {
			text = strings.TrimSpace(a.Text())
		}
		p.TOCLinks = p.TOCLinks.Add(text, r.abs(href))
	})

	doc.Find(".references a.external").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		p.References = p.References.Add(strings.TrimSpace(a.Text()), r.abs(href))
	})

	doc.Find(`.div-col a[href^="/wiki/"]`).Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !articleLink(href) {
			return
		}
		p.SeeAlso = p.SeeAlso.Add(strings.TrimSpace(a.Text()), r.abs(href))
	})

	seen := make(map[string]bool)
	doc.Find("a.image img, figure img, a.mw-file-description img").Each(func(i int, img *goquery.Selection) {
		src, have := img.Attr("src")
		if !have || src == "" {
			return
		}
		src = r.abs(src)
		if seen[src] {
			return
		}
		seen[src] = true
		p.Media = append(p.Media, src)
	})

	return p, nil
}

// IsDisambiguation reports whether the article is a disambiguation
// page.
func IsDisambiguation(doc *goquery.Document) bool {
	if doc.Find("#disambigbox, .dmbox-disambig").Length() > 0 {
		return true
	}
	return strings.Contains(doc.Find("#catlinks").Text(), "Disambiguation pages")
}

// Disambiguations returns the first article link of each list item
// of a disambiguation page.
func Disambiguations(doc *goquery.Document, pageURL string) (core.Links, error) {
	r, err := newResolver(pageURL)
	if err != nil {
		return nil, err
	}
	links := core.Links{}
	doc.Find(".mw-parser-output li").Each(func(i int, li *goquery.Selection) {
		li.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if !articleLink(href) {
				return true
			}
			links = links.Add(strings.TrimSpace(a.Text()), r.abs(href))
			return false
		})
	})
	return links, nil
}

// SearchResults returns the hits listed on a search results page.
func SearchResults(doc *goquery.Document, pageURL string) (core.Links, bool, error) {
	list := doc.Find(".mw-search-results")
	if list.Length() == 0 {
		return nil, false, nil
	}
	r, err := newResolver(pageURL)
	if err != nil {
		return nil, true, err
	}
	links := core.Links{}
	list.Find(".mw-search-result-heading a").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text, have := a.Attr("title")
		if !have {
			text = a.Text()
		}
		links = links.Add(strings.TrimSpace(text), r.abs(href))
	})
	return links, true, nil
}

// MediaName is the local file name for a media URL.
func MediaName(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return path.Base(mediaURL)
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return path.Base(u.Path)
	}
	return name
}
