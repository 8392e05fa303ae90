// Package memory provides an in-process document store.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect"
)

// Store is an in-memory implementation of crudl.Store. Collections are
// created on first access.
type Store struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection returns the collection with the given name.
func (s *Store) Collection(name string) crudl.Collection {
	return s.collection(name)
}

func (s *Store) collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &Collection{}
		s.collections[name] = c
	}
	return c
}

// Len returns the number of documents in the named collection.
func (s *Store) Len(name string) int {
	return s.collection(name).Len()
}

// Collection is an in-memory implementation of crudl.Collection. Documents
// are kept in insertion order.
type Collection struct {
	mu   sync.RWMutex
	docs []crudl.Document
}

// Save inserts doc, or merges it into the document with the same
// identifier.
func (c *Collection) Save(_ context.Context, doc crudl.Document) (crudl.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := dialect.ID(doc); ok {
		for i, d := range c.docs {
			if d[crudl.IDField] == id {
				c.docs[i] = dialect.Merge(d, doc)
				return maps.Clone(c.docs[i]), nil
			}
		}
	} else {
		doc = dialect.Merge(doc, crudl.Document{crudl.IDField: dialect.NewID()})
	}
	stored := maps.Clone(doc)
	c.docs = append(c.docs, stored)
	return maps.Clone(stored), nil
}

// FindOne returns the first document matching filter.
func (c *Collection) FindOne(_ context.Context, filter crudl.Document) (crudl.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.docs {
		if dialect.Match(d, filter) {
			return maps.Clone(d), nil
		}
	}
	return nil, nil
}

// Remove deletes every document matching filter and returns the first
// one removed.
func (c *Collection) Remove(_ context.Context, filter crudl.Document) (crudl.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		first crudl.Document
		kept  = c.docs[:0]
	)
	for _, d := range c.docs {
		if !dialect.Match(d, filter) {
			kept = append(kept, d)
			continue
		}
		if first == nil {
			first = d
		}
	}
	clear(c.docs[len(kept):])
	c.docs = kept
	return first, nil
}

// Find returns every document matching filter.
func (c *Collection) Find(_ context.Context, filter crudl.Document) ([]crudl.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]crudl.Document, 0, len(c.docs))
	for _, d := range c.docs {
		if dialect.Match(d, filter) {
			out = append(out, maps.Clone(d))
		}
	}
	return out, nil
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

var (
	_ crudl.Store      = (*Store)(nil)
	_ crudl.Collection = (*Collection)(nil)
)
