// Package store provides caches for fetched pages.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/GRAYgoose124/wikicrawler/core"
)

// NotFound is returned by Get when a store doesn't have the page.
var NotFound = errors.New("page not found")

// Hook runs when a Store is closed.
type Hook func(ctx context.Context) error

// Store is a cache of pages keyed by URL.
type Store interface {
	Contains(ctx context.Context, url string) (bool, error)

	// Get returns NotFound if the store doesn't have the page.
	Get(ctx context.Context, url string) (*core.Page, error)

	Put(ctx context.Context, p *core.Page) error

	// RegisterHook adds a function that Close will call before
	// releasing anything.
	RegisterHook(h Hook)

	Close(ctx context.Context) error
}

// Hooks is a registry of close hooks that a Store can embed.
type Hooks struct {
	sync.Mutex
	hooks []Hook
}

// RegisterHook adds a hook.
func (hs *Hooks) RegisterHook(h Hook) {
	hs.Lock()
	hs.hooks = append(hs.hooks, h)
	hs.Unlock()
}

// RunHooks calls every hook in registration order.  Every hook runs
// even if an earlier one fails.
func (hs *Hooks) RunHooks(ctx context.Context) error {
	hs.Lock()
	hooks := append([]Hook{}, hs.hooks...)
	hs.Unlock()

	var errs []error
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
