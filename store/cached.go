package store

import (
	"context"
	"errors"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// Cached puts a Memory in front of another Store.
//
// Reads check the Memory first and fill it on a miss.  Writes go to
// both.
type Cached struct {
	Front *Memory
	Back  Store
}

// NewCached makes a Cached.
func NewCached(front *Memory, back Store) *Cached {
	return &Cached{
		Front: front,
		Back:  back,
	}
}

func (s *Cached) Contains(ctx context.Context, url string) (bool, error) {
	if have, _ := s.Front.Contains(ctx, url); have {
		return true, nil
	}
	return s.Back.Contains(ctx, url)
}

func (s *Cached) Get(ctx context.Context, url string) (*core.Page, error) {
	p, err := s.Front.Get(ctx, url)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, NotFound) {
		return nil, err
	}
	if p, err = s.Back.Get(ctx, url); err != nil {
		return nil, err
	}
	s.Front.Put(ctx, p)
	return p, nil
}

func (s *Cached) Put(ctx context.Context, p *core.Page) error {
	if err := s.Back.Put(ctx, p); err != nil {
		return err
	}
	return s.Front.Put(ctx, p)
}

// RegisterHook registers with the backing Store, which is the one
// that holds anything worth flushing.
func (s *Cached) RegisterHook(h Hook) {
	s.Back.RegisterHook(h)
}

func (s *Cached) Close(ctx context.Context) error {
	err := s.Back.Close(ctx)
	return errors.Join(err, s.Front.Close(ctx))
}
