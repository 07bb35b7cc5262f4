// Package session provides the bounded in-process cache of conversation
// state. Entries expire after a configurable idle duration and the store
// holds at most a configurable number of sessions, evicting the least
// recently used entry beyond that bound. There is no persistence: an evicted
// conversation is gone, which is the intended lifecycle for a chat session.
package session

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultIdleTTL    = 30 * time.Minute
	defaultMaxEntries = 1000
)

// Store maps session ids to conversation state under a single lock, so
// creation, lookup and eviction are serialized. GetOrCreate is an atomic
// compute-if-absent: a concurrent flood for the same new id produces exactly
// one State.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List // front is most recently used
	idleTTL    time.Duration
	maxEntries int
	now        func() time.Time
}

type entry struct {
	id         string
	state      *State
	lastAccess time.Time
}

// NewStore builds a store with the given idle TTL and entry bound.
// Non-positive values fall back to defaults.
func NewStore(idleTTL time.Duration, maxEntries int) *Store {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// GetOrCreate returns the live state for id, or invokes factory to build,
// store and return a fresh one. The factory runs under the store lock, so two
// racing turns for the same new id cannot create divergent states.
func (s *Store) GetOrCreate(id string, factory func() *State) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.lookupLocked(id); ok {
		return st
	}

	state := factory()
	elem := s.lru.PushFront(&entry{id: id, state: state, lastAccess: s.now()})
	s.entries[id] = elem
	s.evictLocked()
	return state
}

// Get returns the live state for id. An absent or expired session is not an
// error here; it is surfaced as ok=false and the caller decides whether that
// is fatal.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

// Invalidate removes the entry immediately.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[id]; ok {
		s.removeLocked(elem)
	}
}

// Len reports the number of live entries, purging expired ones first.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	return len(s.entries)
}

// lookupLocked finds a live entry and refreshes its idle clock. Any access,
// read or write, counts as activity.
func (s *Store) lookupLocked(id string) (*State, bool) {
	elem, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*entry)
	if s.expired(ent) {
		s.removeLocked(elem)
		return nil, false
	}
	ent.lastAccess = s.now()
	s.lru.MoveToFront(elem)
	return ent.state, true
}

func (s *Store) expired(ent *entry) bool {
	return s.now().Sub(ent.lastAccess) > s.idleTTL
}

// evictLocked drops expired entries, then trims least recently used entries
// until the bound holds.
func (s *Store) evictLocked() {
	s.purgeExpiredLocked()
	for len(s.entries) > s.maxEntries {
		oldest := s.lru.Back()
		if oldest == nil {
			return
		}
		s.removeLocked(oldest)
	}
}

func (s *Store) purgeExpiredLocked() {
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if !s.expired(elem.Value.(*entry)) {
			break
		}
		s.removeLocked(elem)
		elem = prev
	}
}

func (s *Store) removeLocked(elem *list.Element) {
	ent := elem.Value.(*entry)
	s.lru.Remove(elem)
	delete(s.entries, ent.id)
}
