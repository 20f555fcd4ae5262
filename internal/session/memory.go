package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps form sessions in process
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	forms  map[string]*Form
	guards map[string]bool
	now    func() time.Time
}

// NewMemoryStore creates a store whose forms expire after ttl (0 = never)
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		forms:  make(map[string]*Form),
		guards: make(map[string]bool),
		now:    time.Now,
	}
}

func (s *MemoryStore) lookup(id string) (*Form, bool) {
	f, ok := s.forms[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(f.CreatedAt) > s.ttl {
		delete(s.forms, id)
		return nil, false
	}
	return f, true
}

// Create starts a new form session
func (s *MemoryStore) Create(ctx context.Context, ownerID string) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &Form{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: s.now().UTC()}
	s.forms[f.ID] = f
	return copyForm(f), nil
}

// Get returns a copy of the form, or nil
func (s *MemoryStore) Get(ctx context.Context, id string) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.lookup(id)
	if !ok {
		return nil, nil
	}
	return copyForm(f), nil
}

// Update mutates the form in place when it exists
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*Form)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.lookup(id)
	if !ok {
		return false, nil
	}
	fn(f)
	return true, nil
}

// Discard drops a form session
func (s *MemoryStore) Discard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}

// Acquire takes the guard if nobody holds it
func (s *MemoryStore) Acquire(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guards[key] {
		return false, nil
	}
	s.guards[key] = true
	return true, nil
}

// Release frees the guard
func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guards, key)
	return nil
}

func copyForm(f *Form) *Form {
	c := *f
	if f.State != nil {
		c.State = make(map[string]any, len(f.State))
		for k, v := range f.State {
			c.State[k] = v
		}
	}
	c.Images = append([]string(nil), f.Images...)
	if f.LocationFeatures != nil {
		lf := *f.LocationFeatures
		c.LocationFeatures = &lf
	}
	return &c
}
