package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/syssam/crudl/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric and underscores).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 64 && validIdentifierRe.MatchString(s)
}

// ExecQuerier wraps the standard Exec and Query methods, implemented by
// *sql.DB and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Driver executes statements on a SQL database and records statistics
// about them.
type Driver struct {
	db      *sql.DB
	dialect string
	stats   *QueryStats

	slowThreshold time.Duration
	logger        zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithSlowThreshold sets the threshold for slow query detection.
// Statements taking longer than this duration are counted and logged as
// slow. Default is 100ms.
func WithSlowThreshold(d time.Duration) Option {
	return func(drv *Driver) { drv.slowThreshold = d }
}

// WithLogger sets the logger of slow statements and of every statement at
// trace level.
func WithLogger(logger zerolog.Logger) Option {
	return func(drv *Driver) { drv.logger = logger }
}

// Open opens a database with the database/sql driver registered for the
// dialect: "sqlite" (modernc.org/sqlite), "postgres" (github.com/lib/pq)
// or "mysql" (github.com/go-sql-driver/mysql). Drivers are registered by
// importing them.
func Open(dialectName, source string, opts ...Option) (*Driver, error) {
	db, err := sql.Open(dialectName, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", dialectName, err)
	}
	return OpenDB(dialectName, db, opts...), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialectName string, db *sql.DB, opts ...Option) *Driver {
	drv := &Driver{
		db:            db,
		dialect:       dialectName,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(drv)
	}
	return drv
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect returns the dialect name, e.g. dialect.Postgres.
func (d *Driver) Dialect() string {
	// Wrapped drivers are registered under a prefixed name.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// QueryStats returns the statistics of the statements executed so far.
func (d *Driver) QueryStats() *QueryStats { return d.stats }

// Close closes the underlying database.
func (d *Driver) Close() error { return d.db.Close() }

// Exec executes a statement outside of any transaction.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.exec(ctx, d.db, query, args)
}

// Query executes a query outside of any transaction. The caller closes
// the returned rows.
func (d *Driver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.query(ctx, d.db, query, args)
}

// Tx runs fn in a transaction, committed if fn returns nil and rolled
// back otherwise.
func (d *Driver) Tx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin: %w", err)
	}
	if err := fn(&Tx{tx: tx, drv: d}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	return nil
}

// Tx is a transaction started by Driver.Tx.
type Tx struct {
	tx  *sql.Tx
	drv *Driver
}

// Exec executes a statement within the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.drv.exec(ctx, tx.tx, query, args)
}

// Query executes a query within the transaction.
func (tx *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.drv.query(ctx, tx.tx, query, args)
}

func (d *Driver) exec(ctx context.Context, ex ExecQuerier, query string, args []any) (sql.Result, error) {
	start := time.Now()
	res, err := ex.ExecContext(ctx, query, args...)
	d.record(query, args, start, err, false)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

func (d *Driver) query(ctx context.Context, ex ExecQuerier, query string, args []any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := ex.QueryContext(ctx, query, args...)
	d.record(query, args, start, err, true)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return rows, nil
}
