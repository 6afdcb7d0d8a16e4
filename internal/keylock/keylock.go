// Package keylock provides a set of mutexes keyed by string, with
// context-bounded acquisition. The commit workflow and waitlist
// re-evaluation both lock on "tenant/resource" keys so writes for one
// resource serialize without coordinating across resources.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Set is a collection of per-key locks. The zero value is not usable; use New.
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New creates an empty lock set.
func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Acquire takes the lock for key, blocking until it is available or ctx is
// done. On success it returns a release function that must be called exactly
// once.
func (s *Set) Acquire(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() { s.release(key, e) }, nil
	case <-ctx.Done():
		s.put(key, e)
		return nil, ctx.Err()
	}
}

func (s *Set) release(key string, e *entry) {
	<-e.sem
	s.put(key, e)
}

// put drops one reference and removes the entry once nobody holds or waits
// on it, so the map does not grow with every key ever locked.
func (s *Set) put(key string, e *entry) {
	s.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()
}
