package db

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gadgets-backend-go/internal/models"
)

// Bookkeeping fields kept next to client data. They never leave the store.
const (
	uniqueKeyField = "_uniq"
	createdAtField = "_createdAt"
)

var reservedFields = []string{models.IDField, uniqueKeyField, createdAtField}

// sanitize drops reserved fields from a client-supplied document.
func sanitize(doc models.Document) models.Document {
	if doc == nil {
		return models.Document{}
	}
	return doc.Without(reservedFields...)
}

// stripInternal removes bookkeeping fields from a stored document in place.
func stripInternal(doc models.Document) models.Document {
	delete(doc, uniqueKeyField)
	delete(doc, createdAtField)
	return doc
}

// uniqueKey derives a stable digest from the key's paths and values. Values
// are JSON encoded so that 1 and "1" are different keys.
func uniqueKey(key Filter) string {
	paths := make([]string, 0, len(key))
	for path := range key {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		encoded, err := json.Marshal(key[path])
		if err != nil {
			encoded = []byte(fmt.Sprintf("%T:%v", key[path], key[path]))
		}
		fmt.Fprintf(&b, "%q=%s;", path, encoded)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// seedFromFilter builds the initial body of an upserted document from the
// filter's equality conditions, as a document database would. SetOnInsert
// keys may be dotted paths. Set keys are top-level fields.
func seedFromFilter(filter Filter, update Update) models.Document {
	doc := models.Document{}
	for path, value := range filter {
		if path == models.IDField {
			continue
		}
		doc.SetPath(path, value)
	}
	for k, v := range sanitize(update.SetOnInsert) {
		doc.SetPath(k, v)
	}
	for k, v := range sanitize(update.Set) {
		doc[k] = v
	}
	return doc
}

// matches reports whether doc satisfies every condition in filter. Used by
// backends that cannot express the whole filter natively.
func matches(doc models.Document, filter Filter) bool {
	for path, want := range filter {
		got, ok := doc.Lookup(path)
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// containsFold reports whether the field at path is a string containing term, ignoring case.
func containsFold(doc models.Document, path, term string) bool {
	v, ok := doc.Lookup(path)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
