package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gadgets-backend-go/internal/models"
)

// firestoreStore implements DocumentStore on Firestore. Every write stamps
// createdAtField so NewestFirst can order by it.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) (DocumentStore, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized")
	}
	return &firestoreStore{client: client}, nil
}

func (s *firestoreStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]models.Document, error) {
	if id, ok := filter[models.IDField]; ok {
		doc, err := s.getByID(ctx, collection, fmt.Sprint(id))
		if errors.Is(err, ErrNotFound) {
			return []models.Document{}, nil
		}
		if err != nil {
			return nil, err
		}
		if !matches(doc, filter) {
			return []models.Document{}, nil
		}
		return []models.Document{doc}, nil
	}

	query := s.query(collection, filter)
	if opts.NewestFirst {
		query = query.OrderBy(createdAtField, firestore.Desc)
	}
	return collect(query.Documents(ctx), collection, nil)
}

func (s *firestoreStore) FindOne(ctx context.Context, collection string, filter Filter) (models.Document, error) {
	if id, ok := filter[models.IDField]; ok {
		doc, err := s.getByID(ctx, collection, fmt.Sprint(id))
		if err != nil {
			return nil, err
		}
		if !matches(doc, filter) {
			return nil, fmt.Errorf("%s %v: %w", collection, id, ErrNotFound)
		}
		return doc, nil
	}

	docs, err := collect(s.query(collection, filter).Limit(1).Documents(ctx), collection, nil)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s matching %v: %w", collection, map[string]interface{}(filter), ErrNotFound)
	}
	return docs[0], nil
}

// Search scans the collection: Firestore offers no substring index.
func (s *firestoreStore) Search(ctx context.Context, collection, field, term string) ([]models.Document, error) {
	keep := func(doc models.Document) bool { return containsFold(doc, field, term) }
	return collect(s.client.Collection(collection).Documents(ctx), collection, keep)
}

func (s *firestoreStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	ref := s.client.Collection(collection).NewDoc()
	data := firestoreData(sanitize(doc))
	if _, err := ref.Create(ctx, data); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: ref.ID}, nil
}

// InsertUnique runs the guard lookup and the create in one transaction, which
// Firestore serializes against concurrent writers of the same guard key.
func (s *firestoreStore) InsertUnique(ctx context.Context, collection string, key Filter, doc models.Document) (*models.InsertResult, error) {
	guard := uniqueKey(key)
	coll := s.client.Collection(collection)
	ref := coll.NewDoc()
	data := firestoreData(sanitize(doc))
	data[uniqueKeyField] = guard

	var existing models.Document
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing = nil
		snaps, err := tx.Documents(coll.Where(uniqueKeyField, "==", guard).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(snaps) > 0 {
			existing = snapshotDocument(snaps[0])
			return nil
		}
		return tx.Create(ref, data)
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if existing != nil {
		return nil, &DuplicateError{Collection: collection, Existing: existing}
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: ref.ID}, nil
}

func (s *firestoreStore) UpdateOne(ctx context.Context, collection string, filter Filter, update Update, upsert bool) (*models.UpdateResult, error) {
	var result *models.UpdateResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = &models.UpdateResult{Acknowledged: true}
		snap, err := s.locate(tx, collection, filter)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if snap != nil {
			result.MatchedCount = 1
			current := snap.Data()
			var changes []firestore.Update
			for k, v := range sanitize(update.Set) {
				if old, ok := current[k]; ok && reflect.DeepEqual(old, v) {
					continue
				}
				changes = append(changes, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
			}
			if len(changes) == 0 {
				return nil
			}
			result.ModifiedCount = 1
			return tx.Update(snap.Ref, changes)
		}

		if !upsert {
			return nil
		}
		ref := s.client.Collection(collection).NewDoc()
		if id, ok := filter[models.IDField]; ok {
			ref = s.client.Collection(collection).Doc(fmt.Sprint(id))
		}
		id := ref.ID
		result.UpsertedCount = 1
		result.UpsertedID = &id
		return tx.Create(ref, firestoreData(seedFromFilter(filter, update)))
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	return result, nil
}

func (s *firestoreStore) DeleteOne(ctx context.Context, collection string, filter Filter) (*models.DeleteResult, error) {
	result := &models.DeleteResult{Acknowledged: true}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result.DeletedCount = 0
		snap, err := s.locate(tx, collection, filter)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		result.DeletedCount = 1
		return tx.Delete(snap.Ref)
	})
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return result, nil
}

func (s *firestoreStore) Close(_ context.Context) error {
	return s.client.Close()
}

func (s *firestoreStore) getByID(ctx context.Context, collection, id string) (models.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
		}
		if status.Code(err) == codes.InvalidArgument {
			return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
		}
		return nil, fmt.Errorf("failed to get %s %s: %w", collection, id, err)
	}
	return snapshotDocument(snap), nil
}

// locate finds the first document matching filter inside a transaction.
func (s *firestoreStore) locate(tx *firestore.Transaction, collection string, filter Filter) (*firestore.DocumentSnapshot, error) {
	if id, ok := filter[models.IDField]; ok {
		if fmt.Sprint(id) == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidID)
		}
		snap, err := tx.Get(s.client.Collection(collection).Doc(fmt.Sprint(id)))
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if !matches(snapshotDocument(snap), filter) {
			return nil, ErrNotFound
		}
		return snap, nil
	}
	snaps, err := tx.Documents(s.query(collection, filter).Limit(1)).GetAll()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	return snaps[0], nil
}

func (s *firestoreStore) query(collection string, filter Filter) firestore.Query {
	query := s.client.Collection(collection).Query
	for path, value := range filter {
		query = query.Where(path, "==", value)
	}
	return query
}

// collect drains an iterator, optionally keeping only documents accepted by keep.
func collect(iter *firestore.DocumentIterator, collection string, keep func(models.Document) bool) ([]models.Document, error) {
	defer iter.Stop()
	docs := []models.Document{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", collection, err)
		}
		doc := snapshotDocument(snap)
		if keep != nil && !keep(doc) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func snapshotDocument(snap *firestore.DocumentSnapshot) models.Document {
	doc := models.Document(snap.Data())
	doc[models.IDField] = snap.Ref.ID
	return stripInternal(doc)
}

func firestoreData(doc models.Document) map[string]interface{} {
	data := map[string]interface{}(doc.Clone())
	data[createdAtField] = firestore.ServerTimestamp
	return data
}
