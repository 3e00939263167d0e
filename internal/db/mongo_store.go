package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gadgets-backend-go/internal/models"
)

// mongoStore implements DocumentStore on a MongoDB database. Document ids are
// ObjectIDs exposed as their hex form.
type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo connects to uri, pings the deployment and returns a store over
// the named database. Guarded collections get their uniqueness index.
func ConnectMongo(ctx context.Context, uri, database string) (DocumentStore, error) {
	if uri == "" {
		return nil, errors.New("ConnectMongo: uri cannot be empty")
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &mongoStore{client: client, db: client.Database(database)}
	if err := s.ensureGuardIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureGuardIndexes creates the partial unique index backing InsertUnique.
func (s *mongoStore) ensureGuardIndexes(ctx context.Context) error {
	for _, name := range GuardedCollections {
		model := mongo.IndexModel{
			Keys: bson.D{{Key: uniqueKeyField, Value: 1}},
			Options: options.Index().
				SetName("uniq_guard").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{uniqueKeyField: bson.M{"$exists": true}}),
		}
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create guard index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *mongoStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]models.Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find()
	if opts.NewestFirst {
		findOpts.SetSort(bson.D{{Key: "_id", Value: -1}})
	}
	cursor, err := s.db.Collection(collection).Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	return decodeCursor(ctx, collection, cursor)
}

func (s *mongoStore) FindOne(ctx context.Context, collection string, filter Filter) (models.Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, query).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s matching %v: %w", collection, map[string]interface{}(filter), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func (s *mongoStore) Search(ctx context.Context, collection, field, term string) ([]models.Document, error) {
	query := bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
	cursor, err := s.db.Collection(collection).Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %s.%s: %w", collection, field, err)
	}
	return decodeCursor(ctx, collection, cursor)
}

func (s *mongoStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(sanitize(doc)))
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func (s *mongoStore) InsertUnique(ctx context.Context, collection string, key Filter, doc models.Document) (*models.InsertResult, error) {
	guard := uniqueKey(key)
	body := bson.M(sanitize(doc))
	body[uniqueKeyField] = guard

	res, err := s.db.Collection(collection).InsertOne(ctx, body)
	if mongo.IsDuplicateKeyError(err) {
		var raw bson.M
		if findErr := s.db.Collection(collection).FindOne(ctx, bson.M{uniqueKeyField: guard}).Decode(&raw); findErr != nil {
			return nil, fmt.Errorf("load existing %s document: %w", collection, findErr)
		}
		return nil, &DuplicateError{Collection: collection, Existing: fromBSON(raw)}
	}
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, collection string, filter Filter, update Update, upsert bool) (*models.UpdateResult, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	change := bson.M{}
	if set := sanitize(update.Set); len(set) > 0 {
		change["$set"] = bson.M(set)
	}
	if onInsert := sanitize(update.SetOnInsert); len(onInsert) > 0 {
		change["$setOnInsert"] = bson.M(onInsert)
	}
	if len(change) == 0 {
		return nil, fmt.Errorf("update of %s has no fields", collection)
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, query, change, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	result := &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		id := idString(res.UpsertedID)
		result.UpsertedID = &id
	}
	return result, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, collection string, filter Filter) (*models.DeleteResult, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoFilter translates a Filter; "_id" values must be ObjectID hex strings.
func mongoFilter(filter Filter) (bson.M, error) {
	query := bson.M{}
	for path, value := range filter {
		if path == models.IDField {
			oid, err := primitive.ObjectIDFromHex(fmt.Sprint(value))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidID, value)
			}
			query["_id"] = oid
			continue
		}
		query[path] = value
	}
	return query, nil
}

func decodeCursor(ctx context.Context, collection string, cursor *mongo.Cursor) ([]models.Document, error) {
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s documents: %w", collection, err)
	}
	docs := make([]models.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, fromBSON(r))
	}
	return docs, nil
}

// fromBSON converts driver types (ObjectID, nested D/M/A, DateTime) into
// plain JSON-friendly values.
func fromBSON(raw bson.M) models.Document {
	doc := models.Document{}
	for k, v := range raw {
		doc[k] = plainValue(v)
	}
	return stripInternal(doc)
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case bson.M:
		out := map[string]interface{}{}
		for k, inner := range t {
			out[k] = plainValue(inner)
		}
		return out
	case bson.D:
		out := map[string]interface{}{}
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = plainValue(inner)
		}
		return out
	default:
		return v
	}
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
