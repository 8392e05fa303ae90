package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect/memory"
)

func TestCollection_SaveAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	users := store.Collection("users")

	ada, err := users.Save(ctx, crudl.Document{"name": "Ada"})
	require.NoError(t, err)
	require.NotEmpty(t, ada["_id"])
	assert.Equal(t, "Ada", ada["name"])

	_, err = users.Save(ctx, crudl.Document{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len("users"))

	got, err := users.FindOne(ctx, crudl.Document{"_id": ada["_id"]})
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	all, err := users.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ada", all[0]["name"])
	assert.Equal(t, "Grace", all[1]["name"])

	none, err := users.FindOne(ctx, crudl.Document{"name": "Linus"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCollection_SaveMerges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := memory.NewStore().Collection("users")

	ada, err := users.Save(ctx, crudl.Document{"name": "Ada", "age": 36.0})
	require.NoError(t, err)
	updated, err := users.Save(ctx, crudl.Document{"_id": ada["_id"], "age": 37.0})
	require.NoError(t, err)
	assert.Equal(t, crudl.Document{"_id": ada["_id"], "name": "Ada", "age": 37.0}, updated)

	// Returned documents are copies.
	updated["name"] = "changed"
	got, err := users.FindOne(ctx, crudl.Document{"_id": ada["_id"]})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])

	// An unknown identifier inserts.
	doc, err := users.Save(ctx, crudl.Document{"_id": "fixed", "name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", doc["_id"])
}

func TestCollection_Remove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	tweets := store.Collection("tweets")
	for i := range 3 {
		_, err := tweets.Save(ctx, crudl.Document{"userId": "u1", "n": float64(i)})
		require.NoError(t, err)
	}
	_, err := tweets.Save(ctx, crudl.Document{"userId": "u2"})
	require.NoError(t, err)

	removed, err := tweets.Remove(ctx, crudl.Document{"userId": "u1"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, removed["n"])
	assert.Equal(t, 1, store.Len("tweets"))

	removed, err = tweets.Remove(ctx, crudl.Document{"userId": "u1"})
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestCollection_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	var g errgroup.Group
	for i := range 50 {
		g.Go(func() error {
			_, err := store.Collection("docs").Save(ctx, crudl.Document{"name": fmt.Sprint(i)})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 50, store.Len("docs"))
}
