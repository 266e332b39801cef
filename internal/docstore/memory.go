package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. Bodies are stored as JSON so a read
// returns the same loosely typed values a remote store would.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	order []string
	docs  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

func (s *MemoryStore) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, false, nil
	}
	raw, ok := c.docs[id]
	if !ok {
		return nil, false, nil
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = raw
	return nil
}

// SetRaw stores an arbitrary body, bypassing encoding. Used to seed corrupt
// or hand-written documents.
func (s *MemoryStore) SetRaw(collection, id string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = raw
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, exists := c.docs[id]; !exists {
		return nil
	}
	delete(c.docs, id)
	for i, key := range c.order {
		if key == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return s.filter(collection, func(Document) bool { return true })
}

func (s *MemoryStore) WhereEqual(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	snaps, err := s.filter(collection, func(doc Document) bool {
		v, ok := doc[field].(string)
		return ok && v == value
	})
	if err != nil {
		return nil, err
	}
	out := snaps[:0]
	for _, snap := range snaps {
		if snap.Err == nil {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *MemoryStore) filter(collection string, keep func(Document) bool) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}

	var out []Snapshot
	for _, id := range c.order {
		doc, err := decode(c.docs[id])
		if err != nil {
			out = append(out, Snapshot{ID: id, Err: err})
			continue
		}
		if keep(doc) {
			out = append(out, Snapshot{ID: id, Data: doc})
		}
	}
	return out, nil
}

func (s *MemoryStore) NewKey(ctx context.Context, collection string) string {
	return uuid.NewString()
}

func (s *MemoryStore) Close() error {
	return nil
}

func decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to decode document: empty body")
	}
	return doc, nil
}
