package db

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gadgets-backend-go/internal/models"
)

func openMemoryStore(t *testing.T) DocumentStore {
	t.Helper()
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestSQLiteFindFilters(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	docs := []models.Document{
		{"uid": "u1", "author": map[string]interface{}{"uid": "a1"}, "active": true},
		{"uid": "u2", "author": map[string]interface{}{"uid": "a1"}, "active": false},
		{"uid": "u1", "author": map[string]interface{}{"uid": "a2"}, "active": true},
	}
	var ids []string
	for _, doc := range docs {
		res, err := store.InsertOne(ctx, BlogsCollection, doc)
		require.NoError(t, err)
		require.True(t, res.Acknowledged)
		ids = append(ids, res.InsertedID)
	}

	found, err := store.Find(ctx, BlogsCollection, Filter{"uid": "u1"}, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Find(ctx, BlogsCollection, Filter{"author.uid": "a1"}, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Find(ctx, BlogsCollection, Filter{"active": true, "uid": "u1"}, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Find(ctx, BlogsCollection, nil, FindOptions{NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, ids[2], found[0].ID())

	found, err = store.Find(ctx, ReviewsCollection, nil, FindOptions{})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	one, err := store.FindOne(ctx, BlogsCollection, Filter{models.IDField: ids[1]})
	require.NoError(t, err)
	assert.Equal(t, "u2", one.String("uid"))

	_, err = store.FindOne(ctx, BlogsCollection, Filter{"uid": "nobody"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteSearch(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	for _, name := range []string{"Smartphone X", "Phone Case", "Laptop", "100%_Cotton"} {
		_, err := store.InsertOne(ctx, ProductsCollection, models.Document{"productName": name})
		require.NoError(t, err)
	}
	_, err := store.InsertOne(ctx, ProductsCollection, models.Document{"productName": 42})
	require.NoError(t, err)

	found, err := store.Search(ctx, ProductsCollection, "productName", "PHONE")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.Search(ctx, ProductsCollection, "productName", "%_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%_Cotton", found[0].String("productName"))

	found, err = store.Search(ctx, ProductsCollection, "productName", "")
	require.NoError(t, err)
	assert.Len(t, found, 4)

	_, err = store.InsertOne(ctx, ProductsCollection, models.Document{"productName": "ÉCRAN Phone"})
	require.NoError(t, err)
	found, err = store.Search(ctx, ProductsCollection, "productName", "écran")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ÉCRAN Phone", found[0].String("productName"))
}

func TestSQLiteInsertUnique(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	key := Filter{"uid": "u1", "productInfo.id": "p1"}
	doc := models.Document{"uid": "u1", "productInfo": map[string]interface{}{"id": "p1"}}

	first, err := store.InsertUnique(ctx, OrdersCollection, key, doc)
	require.NoError(t, err)

	_, err = store.InsertUnique(ctx, OrdersCollection, key, doc)
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, first.InsertedID, dup.Existing.ID())

	_, err = store.InsertUnique(ctx, CartsCollection, key, doc)
	assert.NoError(t, err, "the guard is per collection")
}

func TestSQLiteInsertUniqueConcurrent(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	key := Filter{"uid": "u1", "productInfo.id": "p1"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := models.Document{"uid": "u1", "productInfo": map[string]interface{}{"id": "p1"}}
			if _, err := store.InsertUnique(ctx, OrdersCollection, key, doc); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	found, err := store.Find(ctx, OrdersCollection, nil, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSQLiteUpdateOne(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	res, err := store.InsertOne(ctx, ProductsCollection, models.Document{"productName": "Phone", "stock": 3})
	require.NoError(t, err)
	byID := Filter{models.IDField: res.InsertedID}

	upd, err := store.UpdateOne(ctx, ProductsCollection, byID, Update{Set: models.Document{"stock": 5}}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.MatchedCount)
	assert.EqualValues(t, 1, upd.ModifiedCount)

	upd, err = store.UpdateOne(ctx, ProductsCollection, byID, Update{Set: models.Document{"stock": 5}}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, upd.ModifiedCount)

	upd, err = store.UpdateOne(ctx, ProductsCollection, Filter{models.IDField: "absent"}, Update{Set: models.Document{"stock": 1}}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, upd.MatchedCount)
	assert.EqualValues(t, 0, upd.UpsertedCount)

	upd, err = store.UpdateOne(ctx, UsersCollection,
		Filter{"email": "a@x.io", "uid": "u1"},
		Update{Set: models.Document{"name": "Ann"}, SetOnInsert: models.Document{"role": "user"}}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.UpsertedCount)
	require.NotNil(t, upd.UpsertedID)

	user, err := store.FindOne(ctx, UsersCollection, Filter{"uid": "u1"})
	require.NoError(t, err)
	assert.Equal(t, *upd.UpsertedID, user.ID())
	assert.Equal(t, "a@x.io", user.String("email"))
	assert.Equal(t, "user", user.String("role"))
	assert.Equal(t, "Ann", user.String("name"))

	upd, err = store.UpdateOne(ctx, UsersCollection,
		Filter{"email": "a@x.io", "uid": "u1"},
		Update{Set: models.Document{"role": "admin"}, SetOnInsert: models.Document{"role": "user"}}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, upd.UpsertedCount)
	user, err = store.FindOne(ctx, UsersCollection, Filter{"uid": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.String("role"))
}

func TestSQLiteDeleteOne(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	res, err := store.InsertOne(ctx, ReviewsCollection, models.Document{"text": "ok"})
	require.NoError(t, err)

	del, err := store.DeleteOne(ctx, ReviewsCollection, Filter{models.IDField: res.InsertedID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.DeletedCount)

	del, err = store.DeleteOne(ctx, ReviewsCollection, Filter{models.IDField: res.InsertedID})
	require.NoError(t, err)
	assert.True(t, del.Acknowledged)
	assert.EqualValues(t, 0, del.DeletedCount)
}

func TestReservedFieldsAreNotStored(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	res, err := store.InsertOne(ctx, TeamsCollection, models.Document{"_id": "forged", "_uniq": "x", "name": "Core"})
	require.NoError(t, err)
	assert.NotEqual(t, "forged", res.InsertedID)

	team, err := store.FindOne(ctx, TeamsCollection, Filter{models.IDField: res.InsertedID})
	require.NoError(t, err)
	assert.False(t, team.Has("_uniq"))
	assert.Equal(t, "Core", team.String("name"))
}

func TestUniqueKeyIsOrderIndependent(t *testing.T) {
	a := uniqueKey(Filter{"uid": "u1", "productInfo.id": "p1"})
	b := uniqueKey(Filter{"productInfo.id": "p1", "uid": "u1"})
	c := uniqueKey(Filter{"uid": "u1", "productInfo.id": "p2"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	number := uniqueKey(Filter{"uid": "u1", "productInfo.id": float64(1)})
	text := uniqueKey(Filter{"uid": "u1", "productInfo.id": "1"})
	assert.NotEqual(t, number, text)
	assert.Equal(t, number, uniqueKey(Filter{"uid": "u1", "productInfo.id": 1}))
}

func TestSQLiteUpsertSeedsNestedFields(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)
	byID := Filter{models.IDField: "post-1"}
	update := Update{
		Set:         models.Document{"title": "Hello"},
		SetOnInsert: models.Document{"author.uid": "u1"},
	}

	upd, err := store.UpdateOne(ctx, BlogsCollection, byID, update, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.UpsertedCount)

	post, err := store.FindOne(ctx, BlogsCollection, byID)
	require.NoError(t, err)
	assert.Equal(t, "u1", post.String("author.uid"))
	assert.Equal(t, "Hello", post.String("title"))

	upd, err = store.UpdateOne(ctx, BlogsCollection, byID, update, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.MatchedCount)
	assert.EqualValues(t, 0, upd.ModifiedCount)
}
