// Package dataloader batch loads crudl documents by identifier.
//
// # Basic Usage
//
// Create a loader per request and collection:
//
//	users := dataloader.New(c.Store().Collection("users"))
//	docs, errs := users.LoadMany(ctx, ids)
//
// Documents are fetched concurrently, once per distinct identifier, and
// returned in the order of the requested identifiers. Missing documents are
// reported as ErrNotFound at their position.
//
// # Key Extraction
//
// OrderByKeys and GroupByKey work on any value with a key function:
//
//	grouped := dataloader.GroupByKey(tweets, dataloader.Field[string]("userId"))
//	// grouped[userID] contains all tweets of that user
package dataloader

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/crudl"
)

// ErrNotFound is returned when a document is not found in a batch result.
var ErrNotFound = errors.New("dataloader: document not found")

// DefaultConcurrency bounds the concurrent lookups of a LoadMany call.
const DefaultConcurrency = 8

// KeyFunc extracts a key from a value.
type KeyFunc[K comparable, V any] func(V) K

// Field returns a KeyFunc reading the key of a document. Documents without
// the key, or with a value of another type, yield the zero key.
func Field[K comparable](key string) KeyFunc[K, crudl.Document] {
	return func(doc crudl.Document) K {
		k, _ := doc[key].(K)
		return k
	}
}

// OrderByKeys reorders values to match the order of the requested keys.
// Missing values are represented as zero values with ErrNotFound.
//
// The result slices always have the length of keys.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}

	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// GroupByKey groups values by a key function, keeping their order.
// Useful for one-to-many relations where several documents share the same
// owner identifier.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// Loader loads documents of one collection by identifier and caches them
// for its lifetime. A Loader is safe for concurrent use.
type Loader struct {
	coll        crudl.Collection
	concurrency int

	mu    sync.Mutex
	cache map[string]crudl.Document
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the concurrent lookups of a LoadMany call. A
// non-positive n selects DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(l *Loader) { l.concurrency = n }
}

// New returns a loader of the documents of coll.
func New(coll crudl.Collection, opts ...Option) *Loader {
	l := &Loader{
		coll:        coll,
		concurrency: DefaultConcurrency,
		cache:       make(map[string]crudl.Document),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.concurrency <= 0 {
		l.concurrency = DefaultConcurrency
	}
	return l
}

// Load returns the document with the given identifier.
func (l *Loader) Load(ctx context.Context, id string) (crudl.Document, error) {
	docs, errs := l.LoadMany(ctx, []string{id})
	return docs[0], errs[0]
}

// LoadMany returns the documents with the given identifiers, in order.
// A lookup failure is reported at the position of every identifier of the
// batch that was not already cached.
func (l *Loader) LoadMany(ctx context.Context, ids []string) ([]crudl.Document, []error) {
	var (
		mu      sync.Mutex
		found   []crudl.Document
		missing = l.missing(ids)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, id := range missing {
		g.Go(func() error {
			doc, err := l.coll.FindOne(gctx, crudl.Document{crudl.IDField: id})
			if err != nil || doc == nil {
				return err
			}
			mu.Lock()
			found = append(found, doc)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	l.PrimeMany(found)

	l.mu.Lock()
	cached := make([]crudl.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := l.cache[id]; ok {
			cached = append(cached, doc)
		}
	}
	l.mu.Unlock()

	docs, errs := OrderByKeys(ids, cached, Field[string](crudl.IDField))
	if err != nil {
		for i := range errs {
			if errs[i] != nil {
				errs[i] = err
			}
		}
	}
	return docs, errs
}

// missing returns the distinct identifiers absent from the cache.
func (l *Loader) missing(ids []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := l.cache[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Prime adds a document to the cache, e.g. after a mutation.
func (l *Loader) Prime(doc crudl.Document) {
	l.PrimeMany([]crudl.Document{doc})
}

// PrimeMany adds documents to the cache.
func (l *Loader) PrimeMany(docs []crudl.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, doc := range docs {
		if id, ok := doc[crudl.IDField].(string); ok {
			l.cache[id] = doc
		}
	}
}

// Clear removes identifiers from the cache.
func (l *Loader) Clear(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.cache, id)
	}
}

type ctxKey struct{}

// WithLoaders injects request scoped loaders into the context.
//
//	ctx := dataloader.WithLoaders(r.Context(), &Loaders{
//	    Users: dataloader.New(store.Collection("users")),
//	})
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For extracts loaders from the context.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}
