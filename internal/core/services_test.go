package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
	"gadgets-backend-go/internal/payment"
)

func orderDoc(uid, productID string) models.Document {
	return models.Document{
		"uid":         uid,
		"productInfo": map[string]interface{}{"id": productID, "name": "Phone"},
		"status":      "pending",
	}
}

func TestOrderCreateIsGuarded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	orders := NewOrderService(env.store, env.policy, env.events)
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}

	first, err := orders.Create(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := orders.Create(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Result.InsertedID, second.Existing.ID())

	other, err := orders.Create(ctx, ann, orderDoc("u1", "p2"))
	require.NoError(t, err)
	assert.True(t, other.Created)

	list, err := orders.ListOwn(ctx, ann, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, env.queue.count("events"))

	_, err = orders.Create(ctx, ann, models.Document{"uid": "u1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrderPatchesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	orders := NewOrderService(env.store, env.policy, env.events)
	who := models.Identity{Email: "ann@x.io", UID: "u1"}

	created, err := orders.Create(ctx, who, orderDoc("u1", "p1"))
	require.NoError(t, err)
	id := created.Result.InsertedID

	first, err := orders.MarkShipped(ctx, who, id, models.Document{"shipped": true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ModifiedCount)

	again, err := orders.MarkShipped(ctx, who, id, models.Document{"shipped": true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, again.MatchedCount)
	assert.EqualValues(t, 0, again.ModifiedCount)

	missing, err := orders.MarkShipped(ctx, who, "nope", models.Document{"shipped": true})
	require.NoError(t, err)
	assert.EqualValues(t, 0, missing.MatchedCount)
	assert.Nil(t, missing.UpsertedID)

	upserted, err := orders.MarkPaid(ctx, who, "fresh-order", models.Document{"paid": true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, upserted.UpsertedCount)

	_, err = orders.MarkPaid(ctx, who, id, models.Document{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCartIsSelfOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	carts := NewCartService(env.store, env.policy)
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}
	bob := models.Identity{Email: "bob@x.io", UID: "u2"}

	_, err := carts.Add(ctx, bob, orderDoc("u1", "p1"))
	assert.ErrorIs(t, err, ErrForbidden)

	added, err := carts.Add(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	require.True(t, added.Created)

	dup, err := carts.Add(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	assert.False(t, dup.Created)

	_, err = carts.ListOwn(ctx, bob, "u1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = carts.Remove(ctx, bob, added.Result.InsertedID)
	assert.ErrorIs(t, err, ErrForbidden)

	removed, err := carts.Remove(ctx, ann, added.Result.InsertedID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed.DeletedCount)

	absent, err := carts.Remove(ctx, ann, added.Result.InsertedID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, absent.DeletedCount)
}

func TestUserRoleManagement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	tokens, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	users := NewUserService(env.store, tokens, env.policy, env.roles, env.events, zap.NewNop())

	signIn, err := users.SignIn(ctx, models.Document{"email": "ann@x.io", "uid": "u1", "role": "admin"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, signIn.Result.UpsertedCount)
	identity, err := tokens.Verify(signIn.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UID)

	again, err := users.SignIn(ctx, models.Document{"email": "ann@x.io", "uid": "u1", "name": "Ann"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, again.Result.UpsertedCount)
	assert.EqualValues(t, 1, again.Result.MatchedCount)

	ann := models.Identity{Email: "ann@x.io", UID: "u1"}
	isAdmin, err := users.IsAdmin(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = users.GrantAdmin(ctx, ann, "ann@x.io")
	assert.ErrorIs(t, err, ErrForbidden)

	seedUser(t, env.store, "boss@x.io", "admin1", models.RoleAdmin)
	boss := models.Identity{Email: "boss@x.io", UID: "admin1"}

	_, err = users.GrantAdmin(ctx, boss, "ann@x.io")
	require.NoError(t, err)
	isAdmin, err = users.IsAdmin(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.True(t, isAdmin, "cached answer must be dropped after a role change")

	_, err = users.RevokeAdmin(ctx, boss, "ann@x.io")
	require.NoError(t, err)
	isAdmin, err = users.IsAdmin(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = users.UpdateProfile(ctx, ann, "u1", models.Document{"role": "admin"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	deleted, err := users.DeleteByEmail(ctx, boss, "ann@x.io")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted.DeletedCount)
	assert.Equal(t, 3, env.queue.count("events"))

	_, err = users.FindByUID(ctx, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = users.SignIn(ctx, models.Document{"email": "x@x.io"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProductReplaceDuplicateCheck(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	products := NewProductService(env.store, env.policy)
	anyone := models.Identity{}

	phone, err := products.Create(ctx, anyone, models.Document{"productName": "Smartphone X", "email": "s@x.io", "title": "X"})
	require.NoError(t, err)
	laptop, err := products.Create(ctx, anyone, models.Document{"productName": "Laptop", "email": "s@x.io", "title": "L"})
	require.NoError(t, err)

	outcome, err := products.Replace(ctx, anyone, laptop.InsertedID, models.Document{"email": "s@x.io", "title": "X"})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, phone.InsertedID, outcome.Existing.ID())

	outcome, err = products.Replace(ctx, anyone, laptop.InsertedID, models.Document{"email": "s@x.io", "title": "L", "price": 900})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.EqualValues(t, 1, outcome.Result.ModifiedCount)

	outcome, err = products.Replace(ctx, anyone, "missing", models.Document{"price": 1})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.EqualValues(t, 0, outcome.Result.MatchedCount)

	found, err := products.Search(ctx, "PHONE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, phone.InsertedID, found[0].ID())

	all, err := products.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductReplaceChecksEveryMatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	products := NewProductService(env.store, env.policy)
	anyone := models.Identity{}

	first, err := products.Create(ctx, anyone, models.Document{"email": "s@x.io", "title": "T"})
	require.NoError(t, err)
	second, err := products.Create(ctx, anyone, models.Document{"email": "s@x.io", "title": "T"})
	require.NoError(t, err)

	outcome, err := products.Replace(ctx, anyone, first.InsertedID, models.Document{"email": "s@x.io", "title": "T", "price": 9})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, second.InsertedID, outcome.Existing.ID())

	stored, err := products.Get(ctx, first.InsertedID)
	require.NoError(t, err)
	assert.False(t, stored.Has("price"))
}

func TestBlogAuthorship(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	blogs := NewBlogService(env.store, env.policy)
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}
	bob := models.Identity{Email: "bob@x.io", UID: "u2"}

	post, err := blogs.Create(ctx, ann, models.Document{"title": "Hello", "author": map[string]interface{}{"uid": "u1"}})
	require.NoError(t, err)

	_, err = blogs.Update(ctx, bob, "u2", post.InsertedID, models.Document{"title": "Mine"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = blogs.Update(ctx, bob, "u1", post.InsertedID, models.Document{"title": "Mine"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = blogs.Update(ctx, models.Identity{}, "u1", post.InsertedID, models.Document{"title": "Mine"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = blogs.Update(ctx, ann, "u1", post.InsertedID, models.Document{"title": "Hello again"})
	require.NoError(t, err)
	stored, err := blogs.Get(ctx, post.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", stored.String("title"))

	byAuthor, err := blogs.ListByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)

	_, err = blogs.Delete(ctx, bob, "u2", post.InsertedID)
	assert.ErrorIs(t, err, ErrForbidden)
	deleted, err := blogs.Delete(ctx, ann, "u1", post.InsertedID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted.DeletedCount)

	missing, err := blogs.Get(ctx, post.InsertedID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBlogUpsertKeepsAuthor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	blogs := NewBlogService(env.store, env.policy)
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}
	bob := models.Identity{Email: "bob@x.io", UID: "u2"}

	for i := 0; i < 2; i++ {
		_, err := blogs.Update(ctx, ann, "u1", "new-post", models.Document{"title": "Hello"})
		require.NoError(t, err, "update %d", i)
	}
	stored, err := blogs.Get(ctx, "new-post")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.String(models.FieldAuthorUID))

	_, err = blogs.Update(ctx, bob, "u2", "new-post", models.Document{"title": "Mine"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = blogs.Update(ctx, ann, "u1", "new-post", models.Document{
		"author": map[string]interface{}{"uid": "u2", "name": "Ann"},
	})
	require.NoError(t, err)
	stored, err = blogs.Get(ctx, "new-post")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.String(models.FieldAuthorUID))
	assert.Equal(t, "Ann", stored.String("author.name"))
}

func TestOrderPatchKeepsGuardFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	orders := NewOrderService(env.store, env.policy, env.events)
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}

	created, err := orders.Create(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	id := created.Result.InsertedID

	_, err = orders.MarkPaid(ctx, ann, id, models.Document{
		"uid":         "u2",
		"productInfo": map[string]interface{}{"id": "p2"},
		"paid":        true,
	})
	require.NoError(t, err)

	stored, err := env.store.FindOne(ctx, db.OrdersCollection, db.Filter{models.IDField: id})
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.String(models.FieldUID))
	assert.Equal(t, "p1", stored.String(models.FieldProductID))
	assert.Equal(t, true, stored["paid"])

	again, err := orders.Create(ctx, ann, orderDoc("u1", "p1"))
	require.NoError(t, err)
	assert.False(t, again.Created)

	_, err = orders.MarkPaid(ctx, ann, id, models.Document{"uid": "u2"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type stubGateway struct {
	amount int64
	err    error
}

func (g *stubGateway) CreateIntent(_ context.Context, amountMinor int64, _ string) (*payment.Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.amount = amountMinor
	return &payment.Intent{ID: "pi_1", ClientSecret: "secret_1"}, nil
}

func TestPaymentService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	gateway := &stubGateway{}
	payments := NewPaymentService(env.store, gateway, "usd", env.policy, env.events, zap.NewNop())
	ann := models.Identity{Email: "ann@x.io", UID: "u1"}

	secret, err := payments.CreateIntent(ctx, ann, 12.5)
	require.NoError(t, err)
	assert.Equal(t, "secret_1", secret)
	assert.EqualValues(t, 1250, gateway.amount)

	_, err = payments.CreateIntent(ctx, ann, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	gateway.err = payment.ErrPaymentFailed
	_, err = payments.CreateIntent(ctx, ann, 3)
	assert.ErrorIs(t, err, payment.ErrPaymentFailed)

	_, err = payments.Record(ctx, ann, models.Document{"uid": "u1", "amount": 12.5})
	require.NoError(t, err)
	history, err := payments.History(ctx, ann, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = payments.History(ctx, ann, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventPublisherIsBestEffort(t *testing.T) {
	ctx := context.Background()
	queue := newRecordingQueue()
	publisher := NewEventPublisher(queue, "events", zap.NewNop())

	publisher.Publish(ctx, Event{Type: EventOrderCreated, Collection: db.OrdersCollection, DocumentID: "o1"})
	require.Equal(t, 1, queue.count("events"))

	var event Event
	require.NoError(t, json.Unmarshal(queue.messages["events"][0], &event))
	assert.Equal(t, EventOrderCreated, event.Type)
	assert.False(t, event.OccurredAt.IsZero())

	queue.err = errors.New("broker down")
	assert.NotPanics(t, func() { publisher.Publish(ctx, Event{Type: EventOrderPaid}) })

	dropping := NewEventPublisher(nil, "events", zap.NewNop())
	assert.NotPanics(t, func() { dropping.Publish(ctx, Event{Type: EventOrderPaid}) })
}
