package models

import (
	"fmt"
	"strings"
)

// Document is a schemaless record as stored in a collection. Keys are the JSON
// field names sent by clients. The document id travels under IDField.
type Document map[string]interface{}

// IDField is the key under which a document's id is exposed to clients.
const IDField = "_id"

// Well-known field paths. Nested paths use dot notation.
const (
	FieldUID         = "uid"
	FieldEmail       = "email"
	FieldRole        = "role"
	FieldTitle       = "title"
	FieldProductName = "productName"
	FieldProductInfo = "productInfo"
	FieldProductID   = "productInfo.id"
	FieldAuthor      = "author"
	FieldAuthorUID   = "author.uid"
)

// ID returns the document id, or "" when the document has not been stored yet.
func (d Document) ID() string {
	return d.String(IDField)
}

// Lookup resolves a dotted path such as "productInfo.id" against the document.
func (d Document) Lookup(path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the value at path formatted as a string, or "" if absent or null.
func (d Document) String(path string) string {
	v, ok := d.Lookup(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether path resolves to a non-nil value.
func (d Document) Has(path string) bool {
	v, ok := d.Lookup(path)
	return ok && v != nil
}

// OwnerUID returns the identity that owns the document: "uid" when present,
// otherwise the embedded "author.uid".
func (d Document) OwnerUID() string {
	if uid := d.String(FieldUID); uid != "" {
		return uid
	}
	return d.String(FieldAuthorUID)
}

// Clone returns a shallow copy of the top-level keys.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Without returns a shallow copy with the given top-level keys removed.
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// SetPath assigns value at a dotted path, creating intermediate objects as needed.
func (d Document) SetPath(path string, value interface{}) {
	parts := strings.Split(path, ".")
	current := map[string]interface{}(d)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(current[part])
		if !ok {
			next = map[string]interface{}{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Document:
		return m, true
	default:
		return nil, false
	}
}
