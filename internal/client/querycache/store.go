// Package querycache holds the admin client's last-known value for every query key. Entries
// are retained until explicitly invalidated (or evicted by an optional size bound); nothing
// is refetched in the background. Mutations write confirmed results straight into the store.
package querycache

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mindfulpath/practicesite/pkg/logger"
)

// Entry is one cached value together with the time it was written.
type Entry struct {
	QueryKey  string
	Data      any
	Timestamp time.Time
}

// Listener observes writes to a key. ok is false when the key was removed.
type Listener func(entry Entry, ok bool)

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries bounds the store; once exceeded the oldest-inserted key is evicted.
// Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithLogger overrides the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type notification struct {
	key   string
	entry Entry
	ok    bool
}

// Store is a keyed value cache safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	order      []string
	maxEntries int
	// generations advance on every write attempt and invalidation of a key. A load only
	// stores its result when the generation it started under is still current.
	generations map[string]uint64

	listeners map[string]map[uint64]Listener
	nextID    uint64
	onInval   []func(key string)

	loads singleflight.Group
	log   *zap.Logger
	now   func() time.Time
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[string]*Entry),
		generations: make(map[string]uint64),
		listeners:   make(map[string]map[uint64]Listener),
		log:       logger.WithModule("querycache"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the value cached under key.
func (s *Store) Read(key string) (any, bool) {
	entry, ok := s.Entry(key)
	return entry.Data, ok
}

// Entry returns a copy of the entry cached under key.
func (s *Store) Entry(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Write replaces the value under key and notifies its listeners.
func (s *Store) Write(key string, value any) {
	s.Update(key, func(any, bool) (any, bool) {
		return value, true
	})
}

// Update applies fn to the current value under the store lock. fn returns the value to
// store and whether to store it; returning false leaves the entry untouched. fn must not
// call back into the store. Loads of key that are in flight will not store their result.
func (s *Store) Update(key string, fn func(old any, ok bool) (any, bool)) (any, bool) {
	return s.update(key, nil, fn)
}

func (s *Store) update(key string, expect *uint64, fn func(old any, ok bool) (any, bool)) (any, bool) {
	s.mu.Lock()
	if expect != nil && s.generations[key] != *expect {
		s.mu.Unlock()
		return nil, false
	}
	s.generations[key]++

	var old any
	current, exists := s.entries[key]
	if exists {
		old = current.Data
	}

	next, write := fn(old, exists)
	if !write {
		s.mu.Unlock()
		return old, false
	}

	entry := &Entry{QueryKey: key, Data: next, Timestamp: s.now()}
	s.entries[key] = entry

	var pending []notification
	if !exists {
		s.order = append(s.order, key)
		pending = s.evictLocked()
	}
	pending = append(pending, notification{key: key, entry: *entry, ok: true})
	s.mu.Unlock()

	s.dispatch(pending)
	return next, true
}

// Invalidate removes key and runs the invalidation hooks, whether or not a value is
// cached. Listeners are notified only when a value was removed. Loads of key that are in
// flight will not store their result.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	s.generations[key]++
	_, cached := s.entries[key]
	if cached {
		s.removeLocked(key)
	}
	hooks := append([]func(string){}, s.onInval...)
	s.mu.Unlock()

	s.log.Debug("query invalidated", zap.String("key", key), zap.Bool("cached", cached))
	if cached {
		s.dispatch([]notification{{key: key, entry: Entry{QueryKey: key}}})
	}
	for _, hook := range hooks {
		hook(key)
	}
}

// OnInvalidate registers a hook that runs after every explicit invalidation, cached or not.
func (s *Store) OnInvalidate(hook func(key string)) {
	if hook == nil {
		return
	}
	s.mu.Lock()
	s.onInval = append(s.onInval, hook)
	s.mu.Unlock()
}

// Subscribe registers fn for writes and removals of key. The returned function cancels the
// subscription.
func (s *Store) Subscribe(key string, fn Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.listeners[key] == nil {
		s.listeners[key] = make(map[uint64]Listener)
	}
	s.listeners[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners[key], id)
			if len(s.listeners[key]) == 0 {
				delete(s.listeners, key)
			}
		})
	}
}

func (s *Store) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// writeAt stores value under key only while the key is still at generation gen.
func (s *Store) writeAt(key string, gen uint64, value any) bool {
	_, written := s.update(key, &gen, func(any, bool) (any, bool) {
		return value, true
	})
	return written
}

// Keys lists cached keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Len reports the number of cached keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) evictLocked() []notification {
	if s.maxEntries <= 0 {
		return nil
	}
	var evicted []notification
	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.removeLocked(oldest)
		s.log.Debug("query evicted", zap.String("key", oldest))
		evicted = append(evicted, notification{key: oldest, entry: Entry{QueryKey: oldest}})
	}
	return evicted
}

func (s *Store) removeLocked(key string) {
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) dispatch(pending []notification) {
	for _, n := range pending {
		s.mu.Lock()
		fns := make([]Listener, 0, len(s.listeners[n.key]))
		for _, fn := range s.listeners[n.key] {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(n.entry, n.ok)
		}
	}
}
