package store

import (
	"context"
	"time"

	"github.com/GRAYgoose124/wikicrawler/core"

	"github.com/patrickmn/go-cache"
)

// Memory is an in-process Store with optional expiration.
type Memory struct {
	Hooks
	c *cache.Cache
}

// NewMemory makes a Memory whose entries expire after ttl.  A
// non-positive ttl means entries never expire.
func NewMemory(ttl time.Duration) *Memory {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &Memory{
		c: cache.New(ttl, cleanup),
	}
}

func (s *Memory) Contains(ctx context.Context, url string) (bool, error) {
	_, have := s.c.Get(url)
	return have, nil
}

func (s *Memory) Get(ctx context.Context, url string) (*core.Page, error) {
	x, have := s.c.Get(url)
	if !have {
		return nil, NotFound
	}
	return x.(*core.Page), nil
}

func (s *Memory) Put(ctx context.Context, p *core.Page) error {
	s.c.Set(p.URL, p, cache.DefaultExpiration)
	return nil
}

// Len returns the number of unexpired pages.
func (s *Memory) Len() int {
	return s.c.ItemCount()
}

// Close runs the hooks and forgets everything.
func (s *Memory) Close(ctx context.Context) error {
	err := s.RunHooks(ctx)
	s.c.Flush()
	return err
}
