// Package sql provides a SQL-backed document store for crudl models.
//
// Every collection is kept in its own table holding one JSON document per
// row, keyed by the document identifier:
//
//	seq  insertion order
//	id   document identifier (_id)
//	doc  JSON document
//
// Tables are created on first use. Filters on the identifier are pushed
// down to the database, other keys are matched on the decoded documents.
//
// # Dialect Support
//
// The driver registered for the dialect name must be imported:
//
//	import _ "modernc.org/sqlite"          // dialect.SQLite
//	import _ "github.com/lib/pq"           // dialect.Postgres
//	import _ "github.com/go-sql-driver/mysql" // dialect.MySQL
//
//	drv, err := sql.Open(dialect.SQLite, "file:crudl.db",
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithLogger(log),
//	)
//	store := sql.NewStore(drv)
//
// # Statistics
//
// The driver counts statements, errors and slow statements:
//
//	fmt.Println(drv.QueryStats().Stats())
//	// queries=12 execs=3 duration=4ms avg=266µs slow=0 errors=0
package sql
