package analysis

import (
	"sync"
	"time"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Session binds a sealed move store to an editable link set and caches
// the derived metrics. Edits apply atomically and invalidate the cache;
// reads recompute on demand. Metrics are at most O(n^2) for protocol
// sizes of a few hundred moves, so recomputing is cheap.
type Session struct {
	mu    sync.Mutex
	id    string
	title string
	store *linkograph.MoveStore
	links *linkograph.LinkSet
	snap  *Snapshot

	CreatedAt time.Time
	updatedAt time.Time
}

func NewSession(id, title string, store *linkograph.MoveStore, links *linkograph.LinkSet) (*Session, error) {
	if err := links.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		id:        id,
		title:     title,
		store:     store,
		links:     links,
		CreatedAt: now,
		updatedAt: now,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Title() string {
	return s.title
}

// Store returns the sealed move store. It is read-only after sealing,
// so sharing it is safe.
func (s *Session) Store() *linkograph.MoveStore {
	return s.store
}

// LinksCopy returns an independent snapshot of the link set for
// rendering and export, so readers never observe a partial edit.
func (s *Session) LinksCopy() *linkograph.LinkSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links.Clone()
}

// AddLink records a link and drops the cached metrics.
func (s *Session) AddLink(a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.Add(a, b); err != nil {
		return err
	}
	s.snap = nil
	s.updatedAt = time.Now()
	return nil
}

// RemoveLink deletes a link and drops the cached metrics.
func (s *Session) RemoveLink(a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.links.Remove(a, b); err != nil {
		return err
	}
	s.snap = nil
	s.updatedAt = time.Now()
	return nil
}

// Metrics returns the cached snapshot, recomputing it if an edit
// invalidated the cache.
func (s *Session) Metrics() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		snap, err := Compute(s.links)
		if err != nil {
			return Snapshot{}, err
		}
		s.snap = &snap
	}
	return *s.snap, nil
}

// Critical classifies against an explicit threshold over the current set.
func (s *Session) Critical(t int) ([]CriticalMove, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ClassifyCritical(s.links, t)
}

// Patterns runs the structural scans over the current set.
func (s *Session) Patterns(cfg PatternConfig) []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScanPatterns(s.links, cfg)
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Registry is a thread-safe session store with TTL eviction.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// List returns the registered sessions, unordered.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Cleanup removes sessions idle longer than the TTL.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, s := range r.sessions {
		if now.Sub(s.UpdatedAt()) > r.ttl {
			delete(r.sessions, id)
		}
	}
}
