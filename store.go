package crudl

import "context"

// IDField is the name of the identifier attribute every model carries.
const IDField = "_id"

// Document is a single record exchanged with a document store.
type Document = map[string]any

// Collection is the persistence capability the default pipeline steps are
// bound to. Implementations must be safe for concurrent use.
type Collection interface {
	// Save inserts doc, or merges it into the stored document with the same
	// identifier. It returns the stored document including its identifier.
	Save(ctx context.Context, doc Document) (Document, error)

	// FindOne returns the first document matching filter, or nil, nil
	// when nothing matches.
	FindOne(ctx context.Context, filter Document) (Document, error)

	// Remove deletes every document matching filter and returns the first
	// removed document, or nil, nil when nothing matched.
	Remove(ctx context.Context, filter Document) (Document, error)

	// Find returns all documents matching filter.
	Find(ctx context.Context, filter Document) ([]Document, error)
}

// Store resolves collections by name.
type Store interface {
	Collection(name string) Collection
}

// StoreFunc is an adapter to allow the use of ordinary functions as Store.
type StoreFunc func(name string) Collection

// Collection calls f(name).
func (f StoreFunc) Collection(name string) Collection { return f(name) }
