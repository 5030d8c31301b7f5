package session

import (
	"time"

	"pdf-revision-engine/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store maps session ids to sessions. Eviction is by capacity (least
// recently used first) and/or time since the last touch; zero values
// disable either bound.
type Store struct {
	lru     *expirable.LRU[string, *Session]
	onEvict func(*Session)
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	capacity int
	ttl      time.Duration
	onEvict  func(*Session)
}

// WithCapacity bounds the number of live sessions.
func WithCapacity(n int) Option {
	return func(o *storeOptions) { o.capacity = n }
}

// WithTTL drops sessions not touched for d.
func WithTTL(d time.Duration) Option {
	return func(o *storeOptions) { o.ttl = d }
}

// WithEvictHandler is called once for every session leaving the store,
// including explicit deletes. It must not block on the session lock.
func WithEvictHandler(fn func(*Session)) Option {
	return func(o *storeOptions) { o.onEvict = fn }
}

func NewStore(opts ...Option) *Store {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 0 {
		o.capacity = 0
	}

	s := &Store{onEvict: o.onEvict}
	s.lru = expirable.NewLRU[string, *Session](o.capacity, s.evicted, o.ttl)
	return s
}

func (s *Store) evicted(_ string, sess *Session) {
	if sess.closed.Swap(true) {
		return
	}
	if s.onEvict != nil {
		s.onEvict(sess)
	}
}

// Add registers a session.
func (s *Store) Add(sess *Session) {
	s.lru.Add(sess.ID, sess)
}

// Get returns the session or domain.ErrSessionNotFound.
func (s *Store) Get(id string) (*Session, error) {
	sess, ok := s.lru.Get(id)
	if !ok || sess.Closed() {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Touch restarts the session's TTL. Closed sessions are not re-added.
func (s *Store) Touch(sess *Session) {
	if sess.Closed() {
		return
	}
	s.lru.Add(sess.ID, sess)
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	return s.lru.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.lru.Len()
}
