package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect"
)

// Store is a document store keeping every collection in its own table of
// JSON documents. Tables are created on first use.
type Store struct {
	drv    *Driver
	tables sync.Map
}

// NewStore returns a store on drv.
func NewStore(drv *Driver) *Store {
	return &Store{drv: drv}
}

// Driver returns the driver of the store.
func (s *Store) Driver() *Driver { return s.drv }

// Collection returns the collection stored in the table name.
func (s *Store) Collection(name string) crudl.Collection {
	return &Collection{store: s, table: name}
}

var _ crudl.Store = (*Store)(nil)

var ddl = map[string]string{
	dialect.SQLite:   `CREATE TABLE IF NOT EXISTS %s (seq INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL UNIQUE, doc TEXT NOT NULL)`,
	dialect.Postgres: `CREATE TABLE IF NOT EXISTS %s (seq BIGSERIAL PRIMARY KEY, id VARCHAR(64) NOT NULL UNIQUE, doc TEXT NOT NULL)`,
	dialect.MySQL:    "CREATE TABLE IF NOT EXISTS %s (seq BIGINT AUTO_INCREMENT PRIMARY KEY, id VARCHAR(64) NOT NULL UNIQUE, doc LONGTEXT NOT NULL)",
}

// querier is implemented by *Driver and *Tx.
type querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Collection is a table of JSON documents.
type Collection struct {
	store *Store
	table string
}

var _ crudl.Collection = (*Collection)(nil)

// Save inserts doc, or merges it into the stored document with the same
// identifier.
func (c *Collection) Save(ctx context.Context, doc crudl.Document) (crudl.Document, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	var out crudl.Document
	err := c.store.drv.Tx(ctx, func(tx *Tx) error {
		id, ok := dialect.ID(doc)
		if ok {
			docs, err := c.find(ctx, tx, crudl.Document{crudl.IDField: id})
			if err != nil {
				return err
			}
			if len(docs) > 0 {
				data, err := encode(dialect.Merge(docs[0], doc))
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, c.stmt("UPDATE %s SET doc = ? WHERE id = ?"), data, id); err != nil {
					return err
				}
				out, err = decode(data)
				return err
			}
		} else {
			id = dialect.NewID()
		}
		data, err := encode(dialect.Merge(doc, crudl.Document{crudl.IDField: id}))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, c.stmt("INSERT INTO %s (id, doc) VALUES (?, ?)"), id, data); err != nil {
			return err
		}
		out, err = decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindOne returns the first document matching filter, in insertion order.
func (c *Collection) FindOne(ctx context.Context, filter crudl.Document) (crudl.Document, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Remove deletes every document matching filter and returns the first
// one removed.
func (c *Collection) Remove(ctx context.Context, filter crudl.Document) (crudl.Document, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	var first crudl.Document
	err := c.store.drv.Tx(ctx, func(tx *Tx) error {
		docs, err := c.find(ctx, tx, filter)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if _, err := tx.Exec(ctx, c.stmt("DELETE FROM %s WHERE id = ?"), d[crudl.IDField]); err != nil {
				return err
			}
		}
		if len(docs) > 0 {
			first = docs[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// Find returns every document matching filter, in insertion order.
func (c *Collection) Find(ctx context.Context, filter crudl.Document) ([]crudl.Document, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	return c.find(ctx, c.store.drv, filter)
}

// find loads the candidate rows of filter and matches them. Filters on the
// identifier are pushed down to the database.
func (c *Collection) find(ctx context.Context, q querier, filter crudl.Document) ([]crudl.Document, error) {
	query, args := c.stmt("SELECT doc FROM %s ORDER BY seq"), []any(nil)
	if id, ok := dialect.ID(filter); ok {
		query, args = c.stmt("SELECT doc FROM %s WHERE id = ? ORDER BY seq"), []any{id}
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []crudl.Document{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan %s: %w", c.table, err)
		}
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		if dialect.Match(doc, filter) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows %s: %w", c.table, err)
	}
	return docs, nil
}

func (c *Collection) ensure(ctx context.Context) error {
	if _, ok := c.store.tables.Load(c.table); ok {
		return nil
	}
	if !isValidIdentifier(c.table) {
		return fmt.Errorf("dialect/sql: invalid collection name %q", c.table)
	}
	stmt, ok := ddl[c.store.drv.Dialect()]
	if !ok {
		return fmt.Errorf("dialect/sql: unsupported dialect %q", c.store.drv.Dialect())
	}
	if _, err := c.store.drv.Exec(ctx, fmt.Sprintf(stmt, c.quote())); err != nil {
		return err
	}
	c.store.tables.Store(c.table, struct{}{})
	return nil
}

// stmt formats a statement on the collection table with the placeholders
// of the dialect.
func (c *Collection) stmt(format string) string {
	query := fmt.Sprintf(format, c.quote())
	if c.store.drv.Dialect() != dialect.Postgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteString("$" + strconv.Itoa(n))
	}
	return b.String()
}

func (c *Collection) quote() string {
	if c.store.drv.Dialect() == dialect.MySQL {
		return "`" + c.table + "`"
	}
	return `"` + c.table + `"`
}

func encode(doc crudl.Document) (string, error) {
	data, err := json.Marshal(dialect.Normalize(doc))
	if err != nil {
		return "", fmt.Errorf("dialect/sql: encode document: %w", err)
	}
	return string(data), nil
}

func decode(data string) (crudl.Document, error) {
	var doc crudl.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("dialect/sql: decode document: %w", err)
	}
	return doc, nil
}
