package db

import (
	"context"

	"gadgets-backend-go/internal/models"
)

// Filter is a set of equality conditions on dotted field paths. The key
// models.IDField matches the document id.
type Filter map[string]interface{}

// FindOptions tunes a Find call.
type FindOptions struct {
	// NewestFirst orders results by insertion time, most recent first.
	// Without it results come back in insertion order.
	NewestFirst bool
}

// Update describes a $set-style modification. Set replaces top-level fields.
// SetOnInsert is only applied when an upsert creates the document.
type Update struct {
	Set         models.Document
	SetOnInsert models.Document
}

// DocumentStore is the storage collaborator shared by every resource. Each
// call is a single operation against one collection.
type DocumentStore interface {
	// Find returns every document matching filter. It never returns nil on success.
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]models.Document, error)
	// FindOne returns the first match or an error wrapping ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter) (models.Document, error)
	// Search returns documents whose field contains term, ignoring case.
	Search(ctx context.Context, collection, field, term string) ([]models.Document, error)
	InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error)
	// InsertUnique inserts doc unless another document in the collection has
	// the same values for key. The check and the insert are atomic. A clash
	// returns a *DuplicateError carrying the existing document.
	InsertUnique(ctx context.Context, collection string, key Filter, doc models.Document) (*models.InsertResult, error)
	// UpdateOne applies update to the first document matching filter. With
	// upsert, a missing document is created from the filter's equality fields.
	UpdateOne(ctx context.Context, collection string, filter Filter, update Update, upsert bool) (*models.UpdateResult, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (*models.DeleteResult, error)
	Close(ctx context.Context) error
}
