package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store operation names, as recorded by MemoryStore
const (
	OpFetchAll   = "fetch_all"
	OpFetchWhere = "fetch_where"
	OpFetchRange = "fetch_range"
	OpGet        = "get"
	OpInsert     = "insert"
	OpSet        = "set"
	OpUpdate     = "update"
	OpDelete     = "delete"
)

// Call records one primitive invoked on a MemoryStore
type Call struct {
	Op         string
	Collection string
	Equalities []Equality
	Ranges     []Range
}

type memoryCollection struct {
	order []string
	docs  map[string]map[string]any
}

// MemoryStore is an in-process DocumentStore. It records every call and can
// be told to fail specific operations.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	calls       []Call
	failures    map[string]error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
		failures:    make(map[string]error),
	}
}

// FailOn makes op on collection return err. An empty collection matches all.
func (s *MemoryStore) FailOn(collection, op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[collection+"/"+op] = err
}

// Calls returns the recorded calls in order
func (s *MemoryStore) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// ResetCalls clears the call log
func (s *MemoryStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *MemoryStore) record(c Call) error {
	s.calls = append(s.calls, c)
	if err, ok := s.failures[c.Collection+"/"+c.Op]; ok {
		return err
	}
	if err, ok := s.failures["/"+c.Op]; ok {
		return err
	}
	return nil
}

func (s *MemoryStore) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) scan(name string, keep func(map[string]any) bool) []Document {
	c := s.collection(name)
	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		data := c.docs[id]
		if keep(data) {
			out = append(out, Document{ID: id, Data: cloneData(data)})
		}
	}
	return out
}

// FetchAll returns every document of the collection in insertion order
func (s *MemoryStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpFetchAll, Collection: collection}); err != nil {
		return nil, err
	}
	return s.scan(collection, func(map[string]any) bool { return true }), nil
}

// FetchWhere returns documents matching every equality
func (s *MemoryStore) FetchWhere(ctx context.Context, collection string, eq ...Equality) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpFetchWhere, Collection: collection, Equalities: eq}); err != nil {
		return nil, err
	}
	return s.scan(collection, func(data map[string]any) bool {
		for _, e := range eq {
			if !matchesEquality(data, e) {
				return false
			}
		}
		return true
	}), nil
}

// FetchRange returns documents whose numeric fields satisfy every range
func (s *MemoryStore) FetchRange(ctx context.Context, collection string, ranges ...Range) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpFetchRange, Collection: collection, Ranges: ranges}); err != nil {
		return nil, err
	}
	return s.scan(collection, func(data map[string]any) bool {
		for _, r := range ranges {
			if !matchesRange(data, r) {
				return false
			}
		}
		return true
	}), nil
}

// Get returns a document by id, or nil when it does not exist
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpGet, Collection: collection}); err != nil {
		return nil, err
	}
	data, ok := s.collection(collection).docs[id]
	if !ok {
		return nil, nil
	}
	return &Document{ID: id, Data: cloneData(data)}, nil
}

// Insert stores data under a new id
func (s *MemoryStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpInsert, Collection: collection}); err != nil {
		return "", err
	}
	id := uuid.NewString()
	c := s.collection(collection)
	c.order = append(c.order, id)
	c.docs[id] = cloneData(data)
	return id, nil
}

// Set creates or replaces the document with the given id
func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpSet, Collection: collection}); err != nil {
		return err
	}
	c := s.collection(collection)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneData(data)
	return nil
}

// Update merges top-level fields into an existing document
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpUpdate, Collection: collection}); err != nil {
		return err
	}
	data, ok := s.collection(collection).docs[id]
	if !ok {
		return fmt.Errorf("document %s/%s does not exist", collection, id)
	}
	for k, v := range cloneData(fields) {
		data[k] = v
	}
	return nil
}

// Delete removes a document; deleting a missing document is not an error
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpDelete, Collection: collection}); err != nil {
		return err
	}
	c := s.collection(collection)
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

// cloneData deep-copies document data through JSON so callers never share
// maps with the store.
func cloneData(data map[string]any) map[string]any {
	b, err := json.Marshal(data)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
