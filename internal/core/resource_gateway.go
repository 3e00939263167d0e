package core

import (
	"context"
	"errors"
	"fmt"

	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
)

// resourceGateway implements the request shapes shared by every resource
// (list, get, create, guarded create, patch, delete, search) over one collection.
type resourceGateway struct {
	store      db.DocumentStore
	collection string
	// fixed lists top-level fields that patches never change.
	fixed []string
}

func newResourceGateway(store db.DocumentStore, collection string) resourceGateway {
	return resourceGateway{store: store, collection: collection}
}

// withFixedFields returns a copy of g whose patches drop the given top-level fields.
func (g resourceGateway) withFixedFields(fields ...string) resourceGateway {
	g.fixed = fields
	return g
}

func (g resourceGateway) list(ctx context.Context, filter db.Filter, opts db.FindOptions) ([]models.Document, error) {
	docs, err := g.store.Find(ctx, g.collection, filter, opts)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// get returns nil, nil when no document has the id.
func (g resourceGateway) get(ctx context.Context, id string) (models.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	doc, err := g.store.FindOne(ctx, g.collection, db.Filter{models.IDField: id})
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (g resourceGateway) create(ctx context.Context, doc models.Document) (*models.InsertResult, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: body must not be empty", ErrInvalidInput)
	}
	return g.store.InsertOne(ctx, g.collection, doc)
}

// createUnique inserts doc unless a document with the same values at keyPaths
// exists. Every key path must be present in doc.
func (g resourceGateway) createUnique(ctx context.Context, doc models.Document, keyPaths ...string) (*CreateOutcome, error) {
	key := db.Filter{}
	for _, path := range keyPaths {
		v, ok := doc.Lookup(path)
		if !ok || v == nil || v == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, path)
		}
		key[path] = v
	}

	res, err := g.store.InsertUnique(ctx, g.collection, key, doc)
	var dup *db.DuplicateError
	if errors.As(err, &dup) {
		return &CreateOutcome{Created: false, Existing: dup.Existing}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CreateOutcome{Created: true, Result: res}, nil
}

func (g resourceGateway) patch(ctx context.Context, id string, fields models.Document, upsert bool) (*models.UpdateResult, error) {
	return g.patchSeeded(ctx, id, fields, nil, upsert)
}

// patchSeeded is patch with extra fields (dotted paths allowed) that are only
// written when the upsert creates the document.
func (g resourceGateway) patchSeeded(ctx context.Context, id string, fields, seed models.Document, upsert bool) (*models.UpdateResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	fields = fields.Without(append([]string{models.IDField}, g.fixed...)...)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: update body must not be empty", ErrInvalidInput)
	}
	update := db.Update{Set: fields, SetOnInsert: seed}
	return g.store.UpdateOne(ctx, g.collection, db.Filter{models.IDField: id}, update, upsert)
}

func (g resourceGateway) delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return g.store.DeleteOne(ctx, g.collection, db.Filter{models.IDField: id})
}

func (g resourceGateway) search(ctx context.Context, field, term string) ([]models.Document, error) {
	docs, err := g.store.Search(ctx, g.collection, field, term)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// storedOwner resolves the owner of the stored document with id. A missing
// document has no owner.
func (g resourceGateway) storedOwner(id string) Owner {
	return func(ctx context.Context) (string, error) {
		doc, err := g.get(ctx, id)
		if err != nil || doc == nil {
			return "", err
		}
		return doc.OwnerUID(), nil
	}
}
