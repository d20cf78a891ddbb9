// Package store is the single in-memory source of truth for tasks, projects,
// labels and sections. It keeps secondary indexes in step with every
// mutation, exposes a version counter that advances on each mutating call,
// and memoises the fixed set of named views against that counter.
//
// A Store has one writer. It takes no locks and never blocks; callers that
// share it across goroutines must serialise access themselves.
package store

import (
	"time"

	"github.com/rogersnm/errand/internal/cache"
	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/index"
	"github.com/rogersnm/errand/internal/model"
)

// Listener is called with the new version after a mutating call completes.
type Listener func(version uint64)

type Store struct {
	items []*model.Task
	pos   map[string]int

	projects collection[*model.Project]
	labels   collection[*model.Label]
	sections collection[*model.Section]

	index   *index.Index
	views   *cache.Cache[cachedView]
	version uint64

	now      func() time.Time
	newID    func(model.Kind) string
	observer Observer

	listeners    map[int]Listener
	nextListener int
	batching     bool
}

type Option func(*Store)

// WithClock sets the source of "now" for the today and overdue views.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs sets the generator used when a record arrives with a blank id.
func WithIDs(gen func(model.Kind) string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func New(opts ...Option) *Store {
	s := &Store{
		pos:       make(map[string]int),
		index:     index.New(),
		views:     cache.New[cachedView](),
		now:       time.Now,
		newID:     id.Generate,
		observer:  NopObserver{},
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version returns the mutation counter. Two equal reads mean nothing changed
// in between.
func (s *Store) Version() uint64 {
	return s.version
}

// Subscribe registers l and returns an id for Unsubscribe.
func (s *Store) Subscribe(l Listener) int {
	s.nextListener++
	s.listeners[s.nextListener] = l
	return s.nextListener
}

func (s *Store) Unsubscribe(id int) {
	delete(s.listeners, id)
}

// IndexStats reports the size of the secondary indexes.
func (s *Store) IndexStats() index.Stats {
	return s.index.Stats()
}

// CachedViews lists the view names that currently hold a cache entry.
func (s *Store) CachedViews() []string {
	return s.views.Names()
}

// bump advances the version once and tells listeners, unless a batch is
// collecting notifications.
func (s *Store) bump(op string, id string) {
	s.version++
	s.observer.Mutated(op, id, s.version)
	if !s.batching {
		s.notify()
	}
}

func (s *Store) notify() {
	for _, l := range s.listeners {
		l(s.version)
	}
}
