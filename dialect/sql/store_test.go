package sql_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect"
	"github.com/syssam/crudl/dialect/sql"
)

func sqliteStore(t *testing.T) *sql.Store {
	t.Helper()
	db, err := stdsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return sql.NewStore(sql.OpenDB(dialect.SQLite, db))
}

// TestStore_SQLite tests the document store on SQLite.
func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	users := sqliteStore(t).Collection("users")

	ada, err := users.Save(ctx, crudl.Document{"name": "Ada", "age": 36, "born": time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	id, ok := dialect.ID(ada)
	require.True(t, ok)
	assert.Equal(t, float64(36), ada["age"])
	assert.Equal(t, "1815-12-10T00:00:00Z", ada["born"])

	_, err = users.Save(ctx, crudl.Document{"name": "Grace", "tags": []any{"navy"}})
	require.NoError(t, err)

	t.Run("find_one", func(t *testing.T) {
		got, err := users.FindOne(ctx, crudl.Document{crudl.IDField: id})
		require.NoError(t, err)
		assert.Equal(t, ada, got)

		got, err = users.FindOne(ctx, crudl.Document{"name": "Grace"})
		require.NoError(t, err)
		assert.Equal(t, []any{"navy"}, got["tags"])

		got, err = users.FindOne(ctx, crudl.Document{"name": "Nobody"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("find_in_insertion_order", func(t *testing.T) {
		docs, err := users.Find(ctx, nil)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "Ada", docs[0]["name"])
		assert.Equal(t, "Grace", docs[1]["name"])

		docs, err = users.Find(ctx, crudl.Document{"age": 36})
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("save_merges", func(t *testing.T) {
		got, err := users.Save(ctx, crudl.Document{crudl.IDField: id, "age": 37})
		require.NoError(t, err)
		assert.Equal(t, "Ada", got["name"])
		assert.Equal(t, float64(37), got["age"])
	})

	t.Run("save_with_new_identifier_inserts", func(t *testing.T) {
		newID := dialect.NewID()
		got, err := users.Save(ctx, crudl.Document{crudl.IDField: newID, "name": "Linus"})
		require.NoError(t, err)
		assert.Equal(t, newID, got[crudl.IDField])
	})

	t.Run("remove", func(t *testing.T) {
		got, err := users.Remove(ctx, crudl.Document{"name": "Linus"})
		require.NoError(t, err)
		assert.Equal(t, "Linus", got["name"])

		got, err = users.Remove(ctx, crudl.Document{"name": "Linus"})
		require.NoError(t, err)
		assert.Nil(t, got)

		docs, err := users.Find(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

// TestStore_Concurrent tests concurrent saves on SQLite.
func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	notes := sqliteStore(t).Collection("notes")

	var g errgroup.Group
	for i := range 20 {
		g.Go(func() error {
			_, err := notes.Save(ctx, crudl.Document{"n": i})
			return err
		})
	}
	require.NoError(t, g.Wait())
	docs, err := notes.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}

// TestStore_InvalidCollection tests table name validation.
func TestStore_InvalidCollection(t *testing.T) {
	_, err := sqliteStore(t).Collection("users; DROP TABLE x").Find(context.Background(), nil)
	assert.ErrorContains(t, err, "invalid collection name")
}

// TestStore_Postgres tests the statements sent to PostgreSQL.
func TestStore_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	users := sql.NewStore(sql.OpenDB(dialect.Postgres, db)).Collection("users")
	ctx := context.Background()
	id := dialect.NewID()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "users"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM "users" WHERE id = $1 ORDER BY seq`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users" (id, doc) VALUES ($1, $2)`)).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := users.Save(ctx, crudl.Document{crudl.IDField: id, "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, crudl.Document{crudl.IDField: id, "name": "Ada"}, got)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM "users" ORDER BY seq`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(`{"_id":"` + id + `","name":"Ada"}`))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	_, err = users.Remove(ctx, crudl.Document{"name": "Ada"})
	assert.ErrorContains(t, err, "locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestStore_MySQL tests identifier quoting for MySQL.
func TestStore_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	tweets := sql.NewStore(sql.OpenDB(dialect.MySQL, db)).Collection("tweets")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `tweets`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM `tweets` WHERE id = ? ORDER BY seq")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(`{"_id":"t1","body":"hi"}`))

	got, err := tweets.FindOne(context.Background(), crudl.Document{crudl.IDField: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got["body"])
	require.NoError(t, mock.ExpectationsWereMet())
}

