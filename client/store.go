package client

import (
	"sync"

	"blogadmin/models"
)

// View is the client's copy of one page of the post list, the flattened
// form of the server's pagination envelope.
type View struct {
	Posts       []models.Post
	Total       int
	CurrentPage int
	LastPage    int
	PerPage     int
}

// Clone returns a deep copy; mutating the copy never touches the original.
func (v *View) Clone() *View {
	if v == nil {
		return nil
	}
	copied := *v
	copied.Posts = make([]models.Post, len(v.Posts))
	copy(copied.Posts, v.Posts)
	return &copied
}

// Find returns the index of the post with the given id, or -1.
func (v *View) Find(id int64) int {
	for i := range v.Posts {
		if v.Posts[i].ID == id {
			return i
		}
	}
	return -1
}

// Store is the injectable view cache. All reads hand out clones and all
// writes go through the lock, so a snapshot taken inside Update can be
// restored exactly regardless of later reads.
//
// Reads race with navigation: every fetch registers through BeginFetch and
// only the most recent one for its key may apply its result (CompleteFetch),
// so a slow response can never land over a newer response for the same
// parameters. Fetches for different keys stay independent.
type Store struct {
	mu          sync.Mutex
	views       map[string]*View
	stale       map[string]bool
	fetchGen    map[string]uint64
	subscribers map[int]func(key string)
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		views:       make(map[string]*View),
		stale:       make(map[string]bool),
		fetchGen:    make(map[string]uint64),
		subscribers: make(map[int]func(key string)),
	}
}

// Get returns a copy of the cached view for key, if any.
func (s *Store) Get(key string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.views[key]
	if !ok {
		return nil, false
	}
	return view.Clone(), true
}

// Set stores a copy of view under key and clears its stale mark.
func (s *Store) Set(key string, view *View) {
	s.mu.Lock()
	s.views[key] = view.Clone()
	delete(s.stale, key)
	s.mu.Unlock()
	s.publish(key)
}

// Update atomically transforms the view under key. fn receives a private
// copy (nil when the key is empty) and returns the replacement; returning
// an error leaves the store untouched. The previous view is returned as the
// caller's snapshot. There is no unlock between snapshot and replacement.
func (s *Store) Update(key string, fn func(cur *View) (*View, error)) (*View, error) {
	s.mu.Lock()
	prev := s.views[key].Clone()
	next, err := fn(s.views[key].Clone())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if next == nil {
		delete(s.views, key)
	} else {
		s.views[key] = next
	}
	s.mu.Unlock()
	s.publish(key)
	return prev, nil
}

// Restore puts the snapshot back exactly as it was; a nil snapshot removes
// the entry, covering rollback of a mutation that initialized the view.
func (s *Store) Restore(key string, snapshot *View) {
	s.mu.Lock()
	if snapshot == nil {
		delete(s.views, key)
	} else {
		s.views[key] = snapshot.Clone()
	}
	delete(s.stale, key)
	s.mu.Unlock()
	s.publish(key)
}

// Invalidate marks the view stale; the data stays readable until the next
// fetch replaces it with canonical state.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	s.stale[key] = true
	s.mu.Unlock()
	s.publish(key)
}

// Stale reports whether key needs a refetch (marked stale or never loaded).
func (s *Store) Stale(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale[key] {
		return true
	}
	_, ok := s.views[key]
	return !ok
}

// BeginFetch registers a read for key and returns its generation token.
// Generations are scoped per key: a fetch for one view never discards an
// in-flight fetch for another.
func (s *Store) BeginFetch(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchGen[key]++
	return s.fetchGen[key]
}

// CompleteFetch applies a fetched view only when no newer fetch for the
// same key has started since gen was issued. It reports whether the result
// was applied.
func (s *Store) CompleteFetch(gen uint64, key string, view *View) bool {
	s.mu.Lock()
	if gen != s.fetchGen[key] {
		s.mu.Unlock()
		return false
	}
	s.views[key] = view.Clone()
	delete(s.stale, key)
	s.mu.Unlock()
	s.publish(key)
	return true
}

// Subscribe registers fn to run after every applied change, with the
// affected key. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(key string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
