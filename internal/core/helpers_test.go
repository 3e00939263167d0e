package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

func newTestStore(t *testing.T) db.DocumentStore {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenSQLiteStore(ctx, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func seedUser(t *testing.T, store db.DocumentStore, email, uid, role string) {
	t.Helper()
	_, err := store.InsertOne(context.Background(), db.UsersCollection,
		models.Document{models.FieldEmail: email, models.FieldUID: uid, models.FieldRole: role})
	require.NoError(t, err)
}

// memoryCache is an in-process cache.Cache that ignores expiry.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) Close() error { return nil }

// recordingQueue is a messagequeue.MessageQueue that keeps what it was sent.
type recordingQueue struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{messages: map[string][][]byte{}}
}

func (q *recordingQueue) Publish(_ context.Context, queueName string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages[queueName] = append(q.messages[queueName], body)
	return nil
}

func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) count(queueName string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages[queueName])
}

// testEnv wires the services over one in-memory store.
type testEnv struct {
	store  db.DocumentStore
	cache  *memoryCache
	queue  *recordingQueue
	roles  RoleResolver
	policy Policy
	events EventPublisher
}

func newTestEnv(t *testing.T, overrides map[Action]Rule) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := newTestStore(t)
	c := newMemoryCache()
	q := newRecordingQueue()
	roles := NewRoleResolver(store, c, time.Minute, logger)
	return &testEnv{
		store:  store,
		cache:  c,
		queue:  q,
		roles:  roles,
		policy: NewPolicy(roles, overrides, logger),
		events: NewEventPublisher(q, "events", logger),
	}
}
