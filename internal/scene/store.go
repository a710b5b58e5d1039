package scene

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the store at one version. Callers must not
// modify Elements.
type Snapshot struct {
	Version  uint64
	Elements []Element
}

// Store is the ordered collection of drawn elements. Every mutation builds a
// new element slice and publishes it atomically, so readers holding a
// Snapshot never see a partial update. Writers are serialized.
type Store struct {
	mu     sync.Mutex
	cur    atomic.Pointer[Snapshot]
	nextID int64
}

func NewStore() *Store {
	s := &Store{nextID: 1}
	s.cur.Store(&Snapshot{})
	return s
}

// Snapshot returns the current published state.
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

// All returns the current elements in insertion order.
func (s *Store) All() []Element {
	return s.cur.Load().Elements
}

func (s *Store) Version() uint64 {
	return s.cur.Load().Version
}

func (s *Store) Len() int {
	return len(s.cur.Load().Elements)
}

// publish must be called with mu held.
func (s *Store) publish(elements []Element) {
	prev := s.cur.Load()
	s.cur.Store(&Snapshot{Version: prev.Version + 1, Elements: elements})
}

// Append assigns fresh ids and adds the elements at the end. It returns the
// stored copies.
func (s *Store) Append(els ...Element) []Element {
	if len(els) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load().Elements
	next := make([]Element, len(prev), len(prev)+len(els))
	copy(next, prev)

	added := make([]Element, len(els))
	for i, e := range els {
		e = e.Clone()
		e.ID = s.nextID
		s.nextID++
		added[i] = e
		next = append(next, e)
	}
	s.publish(next)
	return added
}

// ReplaceByID applies update to a copy of the element with the given id. An
// absent id, or an update that changes nothing, leaves the store untouched.
func (s *Store) ReplaceByID(id int64, update func(*Element)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load().Elements
	i := slices.IndexFunc(prev, func(e Element) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	e := prev[i].Clone()
	update(&e)
	e.ID = id
	if e.Equal(prev[i]) {
		return false
	}

	next := slices.Clone(prev)
	next[i] = e
	s.publish(next)
	return true
}

// UpdateWhere applies update to every element matching pred and returns how
// many actually changed.
func (s *Store) UpdateWhere(pred func(Element) bool, update func(*Element)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load().Elements
	var next []Element
	changed := 0
	for i, old := range prev {
		if !pred(old) {
			continue
		}
		e := old.Clone()
		update(&e)
		e.ID = old.ID
		if e.Equal(old) {
			continue
		}
		if next == nil {
			next = slices.Clone(prev)
		}
		next[i] = e
		changed++
	}
	if changed > 0 {
		s.publish(next)
	}
	return changed
}

// RemoveWhere drops every element matching pred and returns how many went.
func (s *Store) RemoveWhere(pred func(Element) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load().Elements
	next := make([]Element, 0, len(prev))
	for _, e := range prev {
		if !pred(e) {
			next = append(next, e)
		}
	}
	removed := len(prev) - len(next)
	if removed > 0 {
		s.publish(next)
	}
	return removed
}

// Upsert replaces the element carrying key in place, keeping its id, or
// appends e under that key.
func (s *Store) Upsert(key string, e Element) Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	e = e.Clone()
	e.Key = key
	prev := s.cur.Load().Elements
	if i := slices.IndexFunc(prev, func(o Element) bool { return o.Key == key }); i >= 0 {
		e.ID = prev[i].ID
		if e.Equal(prev[i]) {
			return prev[i]
		}
		next := slices.Clone(prev)
		next[i] = e
		s.publish(next)
		return e
	}

	e.ID = s.nextID
	s.nextID++
	next := make([]Element, len(prev), len(prev)+1)
	copy(next, prev)
	s.publish(append(next, e))
	return e
}

// Load replaces the whole collection, keeping the given ids. Elements without
// an id get a fresh one; new ids continue after the largest loaded one.
func (s *Store) Load(els []Element) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Element, len(els))
	var maxID int64
	for i, e := range els {
		next[i] = e.Clone()
		maxID = max(maxID, e.ID)
	}
	s.nextID = max(s.nextID, maxID+1)
	for i := range next {
		if next[i].ID <= 0 {
			next[i].ID = s.nextID
			s.nextID++
		}
	}
	s.publish(next)
}

// Filter returns the elements matching pred in order.
func (s *Store) Filter(pred func(Element) bool) []Element {
	var out []Element
	for _, e := range s.All() {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first element matching pred.
func (s *Store) Find(pred func(Element) bool) (Element, bool) {
	for _, e := range s.All() {
		if pred(e) {
			return e, true
		}
	}
	return Element{}, false
}

func (s *Store) Get(id int64) (Element, bool) {
	return s.Find(func(e Element) bool { return e.ID == id })
}
