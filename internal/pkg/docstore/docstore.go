// Package docstore is the relay's view of the document store: merge-writes
// and field updates against documents addressed by collection and id.
package docstore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
)

const (
	CollectionPayments    = "payments"
	CollectionUsers       = "users"
	CollectionDiagnostics = "_diagnostics"
)

var (
	// ErrUnavailable is returned when the store is disabled for this run.
	ErrUnavailable = errors.New("document store unavailable")
	// ErrNotFound is returned by Commit when an update targets a missing document.
	ErrNotFound = errors.New("document not found")
)

// ServerTimestamp is replaced by the store's own clock at write time.
var ServerTimestamp = firestore.ServerTimestamp

// WriteOp selects how a Write is applied.
type WriteOp int

const (
	// OpMerge writes the fields and leaves every other field untouched,
	// creating the document if needed.
	OpMerge WriteOp = iota
	// OpUpdate sets the fields on an existing document only.
	OpUpdate
)

// Write is one document mutation inside a Commit.
type Write struct {
	Op         WriteOp
	Collection string
	ID         string
	Fields     map[string]any
}

func MergeWrite(collection, id string, fields map[string]any) Write {
	return Write{Op: OpMerge, Collection: collection, ID: id, Fields: fields}
}

func UpdateWrite(collection, id string, fields map[string]any) Write {
	return Write{Op: OpUpdate, Collection: collection, ID: id, Fields: fields}
}

// Store is the write contract the relay consumes.
type Store interface {
	// Merge writes the given fields and leaves every other field untouched.
	// The document is created if it does not exist.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// Commit applies all writes atomically: either every write lands or none
	// does. An OpUpdate on a missing document fails the commit with ErrNotFound.
	Commit(ctx context.Context, writes ...Write) error
	Close() error
}
