// Package memory is an in-process DocumentStore for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

type collection struct {
	order []string
	docs  map[string]map[string]any
}

// DocumentStore keeps documents in insertion order. Values are deep
// copied on the way in and out.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string]*collection)}
}

// Put stores a document under id, replacing any previous one.
func (s *DocumentStore) Put(collectionName, id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collectionName, id, data)
}

func (s *DocumentStore) put(collectionName, id string, data map[string]any) {
	c, ok := s.collections[collectionName]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[collectionName] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneMap(data)
}

func (s *DocumentStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DocumentStore) GetAllDocuments(ctx context.Context, collectionName string) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return nil, nil
	}
	out := make([]ports.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, ports.Document{ID: id, Data: cloneMap(c.docs[id])})
	}
	return out, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, collectionName, id string) (map[string]any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return nil, false, nil
	}
	data, ok := c.docs[id]
	if !ok {
		return nil, false, nil
	}
	return cloneMap(data), true, nil
}

func (s *DocumentStore) WriteDocumentField(ctx context.Context, collectionName, id, field string, value any, meta ports.WriteMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return core.NewNotFoundError(collectionName, id)
	}
	data, ok := c.docs[id]
	if !ok {
		return core.NewNotFoundError(collectionName, id)
	}
	data[field] = cloneValue(value)
	if !meta.UpdatedAt.IsZero() {
		data[report.FieldUpdatedAt] = meta.UpdatedAt.UTC()
	}
	if meta.UpdatedBy != "" {
		data[report.FieldUpdatedBy] = meta.UpdatedBy
	}
	return nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, collectionName, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return core.NewNotFoundError(collectionName, id)
	}
	if _, ok := c.docs[id]; !ok {
		return core.NewNotFoundError(collectionName, id)
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

func (s *DocumentStore) BatchCreate(ctx context.Context, collectionName string, payloads []map[string]any) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		id, _ := p[report.FieldID].(string)
		if id == "" {
			id = core.NewID().String()
		}
		s.put(collectionName, id, p)
		ids = append(ids, id)
	}
	return ids, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneMap(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	}
	return v
}

var _ ports.DocumentStore = (*DocumentStore)(nil)
