package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"gadgets-backend-go/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents(
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  collection TEXT NOT NULL,
  id         TEXT NOT NULL,
  uniq       TEXT,
  body       TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(collection, id),
  UNIQUE(collection, uniq)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`

// sqliteStore keeps every collection in a single table of JSON bodies and
// queries them with SQLite's JSON functions.
type sqliteStore struct {
	db *sqlx.DB
}

type documentRow struct {
	ID   string `db:"id"`
	Body string `db:"body"`
}

// OpenSQLiteStore opens (and migrates) a SQLite-backed DocumentStore. An
// in-memory DSN is pinned to a single connection so every query sees the same database.
func OpenSQLiteStore(ctx context.Context, dsn string) (DocumentStore, error) {
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	if strings.Contains(dsn, ":memory:") {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &sqliteStore{db: conn}, nil
}

func (s *sqliteStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]models.Document, error) {
	where, args := sqliteWhere(collection, filter)
	order := "seq ASC"
	if opts.NewestFirst {
		order = "seq DESC"
	}
	var rows []documentRow
	query := "SELECT id, body FROM documents WHERE " + where + " ORDER BY " + order
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	return decodeRows(rows)
}

func (s *sqliteStore) FindOne(ctx context.Context, collection string, filter Filter) (models.Document, error) {
	return findOneSQLite(ctx, s.db, collection, filter)
}

// Search narrows candidates to string fields in SQL and folds case in Go.
// SQLite's LOWER and LIKE only fold ASCII letters.
func (s *sqliteStore) Search(ctx context.Context, collection, field, term string) ([]models.Document, error) {
	var rows []documentRow
	query := `SELECT id, body FROM documents
WHERE collection = ? AND json_type(body, ?) = 'text'
ORDER BY seq ASC`
	if err := s.db.SelectContext(ctx, &rows, query, collection, jsonPath(field)); err != nil {
		return nil, fmt.Errorf("search %s.%s: %w", collection, field, err)
	}
	candidates, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(candidates))
	for _, doc := range candidates {
		if containsFold(doc, field, term) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *sqliteStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	body, err := json.Marshal(sanitize(doc))
	if err != nil {
		return nil, fmt.Errorf("encode document for %s: %w", collection, err)
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(collection, id, body) VALUES(?, ?, ?)`, collection, id, string(body)); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *sqliteStore) InsertUnique(ctx context.Context, collection string, key Filter, doc models.Document) (*models.InsertResult, error) {
	body, err := json.Marshal(sanitize(doc))
	if err != nil {
		return nil, fmt.Errorf("encode document for %s: %w", collection, err)
	}
	guard := uniqueKey(key)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert into %s: %w", collection, err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents(collection, id, uniq, body) VALUES(?, ?, ?, ?)
ON CONFLICT(collection, uniq) DO NOTHING`, collection, id, guard, string(body))
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var row documentRow
		if err := tx.GetContext(ctx, &row,
			`SELECT id, body FROM documents WHERE collection = ? AND uniq = ?`, collection, guard); err != nil {
			return nil, fmt.Errorf("load existing %s document: %w", collection, err)
		}
		existing, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		return nil, &DuplicateError{Collection: collection, Existing: existing}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert into %s: %w", collection, err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *sqliteStore) UpdateOne(ctx context.Context, collection string, filter Filter, update Update, upsert bool) (*models.UpdateResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update of %s: %w", collection, err)
	}
	defer tx.Rollback()

	result := &models.UpdateResult{Acknowledged: true}
	current, err := findOneSQLite(ctx, tx, collection, filter)
	switch {
	case err == nil:
		id := current.ID()
		before, _ := json.Marshal(current.Without(models.IDField))
		for k, v := range sanitize(update.Set) {
			current[k] = v
		}
		after, err := json.Marshal(current.Without(models.IDField))
		if err != nil {
			return nil, fmt.Errorf("encode update for %s: %w", collection, err)
		}
		result.MatchedCount = 1
		if !bytes.Equal(before, after) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`, string(after), collection, id); err != nil {
				return nil, fmt.Errorf("update %s %s: %w", collection, id, err)
			}
			result.ModifiedCount = 1
		}
	case errors.Is(err, ErrNotFound) && upsert:
		id, _ := filter[models.IDField].(string)
		if id == "" {
			id = uuid.NewString()
		}
		body, err := json.Marshal(seedFromFilter(filter, update))
		if err != nil {
			return nil, fmt.Errorf("encode upsert for %s: %w", collection, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(collection, id, body) VALUES(?, ?, ?)`, collection, id, string(body)); err != nil {
			return nil, fmt.Errorf("upsert into %s: %w", collection, err)
		}
		result.UpsertedCount = 1
		result.UpsertedID = &id
	case errors.Is(err, ErrNotFound):
		// nothing matched and no upsert requested
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update of %s: %w", collection, err)
	}
	return result, nil
}

func (s *sqliteStore) DeleteOne(ctx context.Context, collection string, filter Filter) (*models.DeleteResult, error) {
	where, args := sqliteWhere(collection, filter)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE "+where+" ORDER BY seq LIMIT 1)", args...)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

func (s *sqliteStore) Close(_ context.Context) error {
	return s.db.Close()
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func findOneSQLite(ctx context.Context, q queryer, collection string, filter Filter) (models.Document, error) {
	where, args := sqliteWhere(collection, filter)
	var row documentRow
	err := q.GetContext(ctx, &row, "SELECT id, body FROM documents WHERE "+where+" ORDER BY seq LIMIT 1", args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s matching %v: %w", collection, map[string]interface{}(filter), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", collection, err)
	}
	return decodeRow(row)
}

// sqliteWhere renders filter as SQL. Field paths are bound as JSON path
// parameters, never interpolated.
func sqliteWhere(collection string, filter Filter) (string, []interface{}) {
	clauses := []string{"collection = ?"}
	args := []interface{}{collection}
	for path, value := range filter {
		if path == models.IDField {
			clauses = append(clauses, "id = ?")
			args = append(args, fmt.Sprint(value))
			continue
		}
		if b, ok := value.(bool); ok {
			value = 0
			if b {
				value = 1
			}
		}
		clauses = append(clauses, "json_extract(body, ?) = ?")
		args = append(args, jsonPath(path), value)
	}
	return strings.Join(clauses, " AND "), args
}

// jsonPath converts "productInfo.id" into `$."productInfo"."id"`.
func jsonPath(path string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(path, ".") {
		b.WriteString(`."`)
		b.WriteString(strings.ReplaceAll(part, `"`, `\"`))
		b.WriteString(`"`)
	}
	return b.String()
}

func decodeRows(rows []documentRow) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeRow(row documentRow) (models.Document, error) {
	dec := json.NewDecoder(strings.NewReader(row.Body))
	dec.UseNumber()
	doc := models.Document{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", row.ID, err)
	}
	doc[models.IDField] = row.ID
	return doc, nil
}
