package vecstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an embedding id is not present in a store.
	ErrNotFound = errors.New("embedding not found")

	// ErrStoreExists is returned when registering a store under a name that
	// is already taken.
	ErrStoreExists = errors.New("store already registered")

	// ErrStoreNotFound is returned when resolving an unregistered store name.
	ErrStoreNotFound = errors.New("store not registered")

	// ErrNoDefaultStore is returned when requesting the default store from
	// an empty registry.
	ErrNoDefaultStore = errors.New("no default store registered")
)

// DimensionMismatchError indicates a vector whose length does not match the
// store's established dimensionality.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// StoreError wraps a filesystem or remote-client failure with store-level
// context: the operation and the id or path involved.
//
// The underlying error can be accessed via errors.Unwrap / errors.Is.
type StoreError struct {
	Op   string // operation, e.g. "add", "delete", "search"
	ID   string // embedding or document id, if any
	Path string // file path or collection, if any
	err  error
}

func (e *StoreError) Error() string {
	msg := "vecstore: " + e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	return msg + ": " + e.err.Error()
}

func (e *StoreError) Unwrap() error { return e.err }

func storeErr(op, id, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, ID: id, Path: path, err: err}
}
