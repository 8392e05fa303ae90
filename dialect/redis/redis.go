// Package redis provides a Redis-backed document store for crudl models.
//
// A collection is kept in two keys: a hash of msgpack documents by
// identifier, and a list of identifiers in insertion order.
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := crudlredis.NewStore(client, crudlredis.WithPrefix("app:"))
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect"
)

// maxRetries bounds the optimistic transaction retries of a write.
const maxRetries = 16

// Store is a document store on a Redis server.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the prefix of every key. Default is "crudl:".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// NewStore returns a store on client.
func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: "crudl:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection returns the collection name.
func (s *Store) Collection(name string) crudl.Collection {
	return &Collection{
		client: s.client,
		docs:   s.prefix + name,
		order:  s.prefix + name + ":ids",
	}
}

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }

var _ crudl.Store = (*Store)(nil)

// Collection is a collection of documents on a Redis server.
type Collection struct {
	client redis.UniversalClient
	docs   string
	order  string
}

var _ crudl.Collection = (*Collection)(nil)

// Save inserts doc, or merges it into the stored document with the same
// identifier.
func (c *Collection) Save(ctx context.Context, doc crudl.Document) (crudl.Document, error) {
	id, ok := dialect.ID(doc)
	if !ok {
		id = dialect.NewID()
	}
	var data []byte
	err := c.watch(ctx, func(tx *redis.Tx) error {
		stored, err := c.get(ctx, tx, id)
		if err != nil {
			return err
		}
		out := dialect.Merge(stored, doc)
		out[crudl.IDField] = id
		if data, err = encode(out); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, c.docs, id, data)
			if stored == nil {
				pipe.RPush(ctx, c.order, id)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// FindOne returns the first document matching filter, in insertion order.
func (c *Collection) FindOne(ctx context.Context, filter crudl.Document) (crudl.Document, error) {
	docs, err := c.find(ctx, c.client, filter)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Remove deletes every document matching filter and returns the first
// one removed.
func (c *Collection) Remove(ctx context.Context, filter crudl.Document) (crudl.Document, error) {
	var first crudl.Document
	err := c.watch(ctx, func(tx *redis.Tx) error {
		docs, err := c.find(ctx, tx, filter)
		if err != nil || len(docs) == 0 {
			first = nil
			return err
		}
		first = docs[0]
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, d := range docs {
				id, _ := dialect.ID(d)
				pipe.HDel(ctx, c.docs, id)
				pipe.LRem(ctx, c.order, 1, id)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// Find returns every document matching filter, in insertion order.
func (c *Collection) Find(ctx context.Context, filter crudl.Document) ([]crudl.Document, error) {
	return c.find(ctx, c.client, filter)
}

// watch runs fn in an optimistic transaction on the collection keys,
// retried while another client modifies them.
func (c *Collection) watch(ctx context.Context, fn func(*redis.Tx) error) error {
	for range maxRetries {
		err := c.client.Watch(ctx, fn, c.docs, c.order)
		if !errors.Is(err, redis.TxFailedErr) {
			if err != nil {
				return fmt.Errorf("dialect/redis: %s: %w", c.docs, err)
			}
			return nil
		}
	}
	return fmt.Errorf("dialect/redis: %s: %w", c.docs, redis.TxFailedErr)
}

func (c *Collection) get(ctx context.Context, r redis.Cmdable, id string) (crudl.Document, error) {
	data, err := r.HGet(ctx, c.docs, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (c *Collection) find(ctx context.Context, r redis.Cmdable, filter crudl.Document) ([]crudl.Document, error) {
	docs := []crudl.Document{}
	if id, ok := dialect.ID(filter); ok {
		doc, err := c.get(ctx, r, id)
		if err != nil {
			return nil, err
		}
		if doc != nil && dialect.Match(doc, filter) {
			docs = append(docs, doc)
		}
		return docs, nil
	}
	ids, err := r.LRange(ctx, c.order, 0, -1).Result()
	if err != nil || len(ids) == 0 {
		return docs, err
	}
	values, err := r.HMGet(ctx, c.docs, ids...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		if dialect.Match(doc, filter) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func encode(doc crudl.Document) ([]byte, error) {
	data, err := msgpack.Marshal(dialect.Normalize(doc))
	if err != nil {
		return nil, fmt.Errorf("dialect/redis: encode document: %w", err)
	}
	return data, nil
}

func decode(data []byte) (crudl.Document, error) {
	var doc map[string]any
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dialect/redis: decode document: %w", err)
	}
	return crudl.Document(doc), nil
}
