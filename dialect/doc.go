// Package dialect holds the names of the supported document store
// backends and the helpers they share.
//
// # Supported Dialects
//
//	dialect.SQLite   = "sqlite"    // dialect/sql, modernc.org/sqlite
//	dialect.Postgres = "postgres"  // dialect/sql, github.com/lib/pq
//	dialect.MySQL    = "mysql"     // dialect/sql, github.com/go-sql-driver/mysql
//	dialect.Redis    = "redis"     // dialect/redis
//	dialect.Memory   = "memory"    // dialect/memory
//
// # Filters
//
// Every store implements the same filter semantics: a document matches a
// filter when it holds every filter key with an equal value. Values are
// compared after Normalize, so an int argument matches a float64 read
// back from JSON, and a time.Time matches its RFC 3339 form.
//
//	dialect.Match(crudl.Document{"name": "Ada", "age": 36.0},
//	    crudl.Document{"age": 36}) // true
//
// # Sub-packages
//
//   - dialect/memory: in-process store
//   - dialect/sql: JSON documents in SQL tables
//   - dialect/redis: msgpack documents in Redis hashes
package dialect
