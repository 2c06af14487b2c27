// Package bolt is a page Store backed by a bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/GRAYgoose124/wikicrawler/core"
	"github.com/GRAYgoose124/wikicrawler/store"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket holds one JSON page per URL.
var Bucket = []byte("pages")

// NotOpen occurs when the Store is used before Open.
var NotOpen = errors.New("bolt store not open")

// Store is a store.Store that keeps pages in a bbolt database.
type Store struct {
	store.Hooks

	filename string
	db       *bbolt.DB
	logger   *zap.Logger
}

// NewStore makes a Store for the given file.  Call Open before use.
func NewStore(filename string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		filename: filename,
		logger:   logger.Named("bolt"),
	}
}

// Open opens (or creates) the database file.
func (s *Store) Open(ctx context.Context) error {
	opts := &bbolt.Options{
		Timeout: time.Second,
	}

	db, err := bbolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	})
	if err != nil {
		db.Close()
		return err
	}
	s.db = db
	s.logger.Debug("opened", zap.String("file", s.filename))
	return nil
}

func (s *Store) Contains(ctx context.Context, url string) (bool, error) {
	if s.db == nil {
		return false, NotOpen
	}
	var have bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		have = tx.Bucket(Bucket).Get([]byte(url)) != nil
		return nil
	})
	return have, err
}

func (s *Store) Get(ctx context.Context, url string) (*core.Page, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var p *core.Page
	err := s.db.View(func(tx *bbolt.Tx) error {
		bs := tx.Bucket(Bucket).Get([]byte(url))
		if bs == nil {
			return store.NotFound
		}
		p = &core.Page{}
		return json.Unmarshal(bs, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("get", zap.String("url", url), zap.String("title", p.Title))
	return p, nil
}

func (s *Store) Put(ctx context.Context, p *core.Page) error {
	if s.db == nil {
		return NotOpen
	}
	js, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.logger.Debug("put", zap.String("url", p.URL), zap.Int("bytes", len(js)))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Put([]byte(p.URL), js)
	})
}

// URLs returns every stored key.
func (s *Store) URLs(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	acc := make([]string, 0, 32)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	return acc, err
}

// Close runs the registered hooks and then closes the database.
func (s *Store) Close(ctx context.Context) error {
	err := s.RunHooks(ctx)
	if s.db == nil {
		return err
	}
	s.logger.Debug("closing", zap.String("file", s.filename))
	return errors.Join(err, s.db.Close())
}
