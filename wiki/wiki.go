// Package wiki fetches and parses Wikipedia articles.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/GRAYgoose124/wikicrawler/core"
	"github.com/GRAYgoose124/wikicrawler/store"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is English Wikipedia.
var DefaultBaseURL = "https://en.wikipedia.org"

// Config parameterizes a Crawler.
type Config struct {
	// BaseURL is the scheme and host of the wiki.
	BaseURL string

	// Token, if not empty, is sent as a bearer token.
	Token string

	UserAgent string

	// Timeout bounds each request.
	Timeout time.Duration

	// Rate is the minimum interval between requests.
	Rate time.Duration

	// MediaDir, if not empty, is where media files are saved.
	// Pages then refer to their media by local path.
	MediaDir string
}

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Crawler searches for and retrieves articles.
//
// Retrieved pages are cached in the Store, which is consulted first.
type Crawler struct {
	Config

	client *http.Client
	store  store.Store
	media  *MediaLoader
	logger *zap.Logger

	sync.Mutex
	last time.Time
}

// NewCrawler makes a Crawler.  The store can be nil.
func NewCrawler(c Config, s store.Store, logger *zap.Logger) (*Crawler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = "wikicrawler/1.0"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}

	cr := &Crawler{
		Config: c,
		client: &http.Client{
			Jar:     jar,
			Timeout: c.Timeout,
		},
		store:  s,
		logger: logger.Named("wiki"),
	}
	if c.MediaDir != "" {
		cr.media = NewMediaLoader(c.MediaDir, cr.client, cr.logger)
	}
	return cr, nil
}

// Media returns the media loader, which is nil unless MediaDir was
// given.
func (c *Crawler) Media() *MediaLoader {
	return c.media
}

// wait enforces the minimum interval between requests.
func (c *Crawler) wait(ctx context.Context) error {
	c.Lock()
	next := c.last.Add(c.Rate)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.last = next
	c.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fetch GETs the URL and parses the response.  The returned URL is
// the one reached after redirects.
func (c *Crawler) fetch(ctx context.Context, target string) (*goquery.Document, string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	c.logger.Debug("fetch", zap.String("url", target))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{URL: target, Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return doc, resp.Request.URL.String(), nil
}

// Retrieve returns the article at the URL, from the store if it has
// it.
func (c *Crawler) Retrieve(ctx context.Context, target string) (*core.Page, error) {
	if c.store != nil {
		p, err := c.store.Get(ctx, target)
		if err == nil {
			c.logger.Debug("cached", zap.String("url", target))
			return p, nil
		}
		if !errors.Is(err, store.NotFound) {
			c.logger.Warn("store get failed", zap.String("url", target), zap.Error(err))
		}
	}

	doc, final, err := c.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return c.page(ctx, doc, target, final)
}

// page parses an article and caches it under the requested URL.
func (c *Crawler) page(ctx context.Context, doc *goquery.Document, requested, final string) (*core.Page, error) {
	p, err := Parse(doc, final)
	if err != nil {
		return nil, err
	}
	if c.media != nil {
		urls := p.Media
		p.Media = make([]string, len(urls))
		for i, u := range urls {
			p.Media[i] = filepath.Join(c.media.Dir, MediaName(u))
		}
		c.media.Load(ctx, urls)
	}
	if c.store != nil {
		for _, key := range []string{requested, final} {
			q := *p
			q.URL = key
			if err := c.store.Put(ctx, &q); err != nil {
				return nil, &core.Unrecoverable{Err: err}
			}
			if requested == final {
				break
			}
		}
	}
	return p, nil
}

// SearchURL is the URL of the wiki's search for the phrase.
func (c *Crawler) SearchURL(phrase string) string {
	return c.BaseURL + "/wiki/Special:Search?search=" + url.QueryEscape(phrase)
}

// Search looks for the phrase.
//
// An unambiguous phrase gives a single direct result.  A search
// results page or a disambiguation page gives a labeled list.  When
// precache is false, listed pages are Deferred.
func (c *Crawler) Search(ctx context.Context, phrase string, precache bool) ([]core.SearchResult, error) {
	doc, final, err := c.fetch(ctx, c.SearchURL(phrase))
	if err != nil {
		return nil, err
	}

	links, listed, err := SearchResults(doc, final)
	if err != nil {
		return nil, err
	}
	if !listed && IsDisambiguation(doc) {
		if links, err = Disambiguations(doc, final); err != nil {
			return nil, err
		}
		listed = true
	}

	if !listed {
		p, err := c.page(ctx, doc, final, final)
		if err != nil {
			return nil, err
		}
		return []core.SearchResult{{Ref: core.Resolved{Page: p}}}, nil
	}

	c.logger.Debug("search listed", zap.String("phrase", phrase), zap.Int("results", len(links)))
	acc := make([]core.SearchResult, 0, len(links))
	for _, l := range links {
		target := l.URL
		var ref core.PageRef = core.Deferred{
			URL: target,
			Fetch: func(ctx context.Context) (*core.Page, error) {
				return c.Retrieve(ctx, target)
			},
		}
		if precache {
			p, err := c.Retrieve(ctx, target)
			if err != nil {
				c.logger.Warn("precache failed", zap.String("url", target), zap.Error(err))
			} else {
				ref = core.Resolved{Page: p}
			}
		}
		acc = append(acc, core.SearchResult{
			Label: l.Text,
			Ref:   ref,
		})
	}
	return acc, nil
}
