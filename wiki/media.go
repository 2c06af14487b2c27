package wiki

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MediaLoader downloads media files in the background.
//
// It only writes files.  Pages already refer to the local paths.
type MediaLoader struct {
	Dir string

	// Limit is the maximum number of concurrent downloads per
	// page.
	Limit int

	client *http.Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewMediaLoader makes a MediaLoader that writes into dir.
func NewMediaLoader(dir string, client *http.Client, logger *zap.Logger) *MediaLoader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaLoader{
		Dir:    dir,
		Limit:  4,
		client: client,
		logger: logger,
	}
}

// Load starts downloading the URLs and returns immediately.  Files
// that already exist are skipped.
func (m *MediaLoader) Load(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.load(ctx, urls); err != nil {
			m.logger.Warn("media download failed", zap.Error(err))
		}
	}()
}

// Wait blocks until every download started so far has finished.
func (m *MediaLoader) Wait() {
	m.wg.Wait()
}

func (m *MediaLoader) load(ctx context.Context, urls []string) error {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Limit)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			return m.download(ctx, u)
		})
	}
	return g.Wait()
}

func (m *MediaLoader) download(ctx context.Context, u string) error {
	filename := filepath.Join(m.Dir, MediaName(u))
	if _, err := os.Stat(filename); err == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: u, Status: resp.StatusCode}
	}

	tmp := filename + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	m.logger.Debug("media saved", zap.String("file", filename))
	return os.Rename(tmp, filename)
}
