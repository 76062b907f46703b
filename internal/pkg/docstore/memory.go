package docstore

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and local runs without
// Firestore credentials. ServerTimestamp values are resolved with Now.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]map[string]map[string]any
	writes int

	// FailWith, when set, is returned by every write.
	FailWith error
	Now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]map[string]any),
		Now:  time.Now,
	}
}

// Seed stores a document without counting it as a write.
func (m *MemoryStore) Seed(collection, id string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, fields)
}

func (m *MemoryStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, m.FailWith)
	}
	m.writes++
	m.put(collection, id, fields)
	return nil
}

func (m *MemoryStore) Commit(ctx context.Context, writes ...Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return fmt.Errorf("commit: %w", m.FailWith)
	}
	// Check every precondition before the first write is applied.
	for _, w := range writes {
		if w.Op != OpUpdate {
			continue
		}
		if _, ok := m.docs[w.Collection][w.ID]; !ok {
			return fmt.Errorf("update %s/%s: %w", w.Collection, w.ID, ErrNotFound)
		}
	}
	for _, w := range writes {
		m.writes++
		m.put(w.Collection, w.ID, w.Fields)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Get returns a copy of the stored document.
func (m *MemoryStore) Get(collection, id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, false
	}
	return maps.Clone(doc), true
}

// Count returns the number of documents in a collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[collection])
}

// Writes returns how many documents were written by Merge and Commit.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryStore) put(collection, id string, fields map[string]any) {
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.docs[collection] = coll
	}
	doc, ok := coll[id]
	if !ok {
		doc = make(map[string]any, len(fields))
		coll[id] = doc
	}
	for k, v := range fields {
		if v == ServerTimestamp {
			v = m.Now()
		}
		doc[k] = v
	}
}
