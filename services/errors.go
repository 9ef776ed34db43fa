package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blogicum/blogicum/storage"
)

var (
	// ErrNotFound means the entity is missing or hidden from the viewer.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner means the viewer may not modify the entity.
	ErrNotOwner = errors.New("not the owner")
	// ErrAnonymous means the operation needs a logged-in user.
	ErrAnonymous = errors.New("authentication required")
)

// NonFieldErrors is the key for errors not bound to a single field.
const NonFieldErrors = "__all__"

// ValidationError maps form field names to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has an error.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// notFound converts storage misses to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
