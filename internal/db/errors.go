package db

import (
	"errors"
	"fmt"

	"gadgets-backend-go/internal/models"
)

var (
	// ErrNotFound is returned by FindOne when nothing matches.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned when an id cannot address a document in the backend.
	ErrInvalidID = errors.New("invalid document id")
	// ErrAlreadyExists is matched by *DuplicateError.
	ErrAlreadyExists = errors.New("document already exists")
)

// DuplicateError reports a rejected InsertUnique along with the document that
// already holds the key.
type DuplicateError struct {
	Collection string
	Existing   models.Document
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrAlreadyExists, e.Collection, e.Existing.ID())
}

// Is makes errors.Is(err, ErrAlreadyExists) hold for duplicates.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}
