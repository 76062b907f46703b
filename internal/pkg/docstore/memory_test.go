package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMergeKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(CollectionUsers, "u1", map[string]any{"name": "Ana", "premium": false})

	require.NoError(t, s.Merge(ctx, CollectionUsers, "u1", map[string]any{"premium": true}))

	doc, ok := s.Get(CollectionUsers, "u1")
	require.True(t, ok)
	assert.Equal(t, "Ana", doc["name"])
	assert.Equal(t, true, doc["premium"])
	assert.Equal(t, 1, s.Writes())
}

func TestMemoryStoreMergeCreatesDocument(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Merge(context.Background(), CollectionPayments, "u1", map[string]any{"status": "paid"}))
	assert.Equal(t, 1, s.Count(CollectionPayments))
}

func TestMemoryStoreCommitUpdateRequiresExistingDocument(t *testing.T) {
	s := NewMemoryStore()
	err := s.Commit(context.Background(), UpdateWrite(CollectionUsers, "ghost", map[string]any{"premium": true}))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, s.Writes())
	assert.Equal(t, 0, s.Count(CollectionUsers))
}

func TestMemoryStoreCommitIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore()

	err := s.Commit(context.Background(),
		MergeWrite(CollectionPayments, "ghost", map[string]any{"status": "paid"}),
		UpdateWrite(CollectionUsers, "ghost", map[string]any{"premium": true}),
	)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := s.Get(CollectionPayments, "ghost")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Writes())
}

func TestMemoryStoreCommitAppliesAllWrites(t *testing.T) {
	s := NewMemoryStore()
	s.Seed(CollectionUsers, "u1", map[string]any{"name": "Ana"})

	require.NoError(t, s.Commit(context.Background(),
		MergeWrite(CollectionPayments, "u1", map[string]any{"status": "paid"}),
		UpdateWrite(CollectionUsers, "u1", map[string]any{"premium": true}),
	))

	payment, ok := s.Get(CollectionPayments, "u1")
	require.True(t, ok)
	assert.Equal(t, "paid", payment["status"])
	user, _ := s.Get(CollectionUsers, "u1")
	assert.Equal(t, true, user["premium"])
	assert.Equal(t, "Ana", user["name"])
	assert.Equal(t, 2, s.Writes())
}

func TestMemoryStoreResolvesServerTimestamp(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.Now = func() time.Time { return fixed }

	require.NoError(t, s.Merge(context.Background(), CollectionPayments, "u1", map[string]any{"paidAt": ServerTimestamp}))

	doc, _ := s.Get(CollectionPayments, "u1")
	assert.Equal(t, fixed, doc["paidAt"])
}

func TestMemoryStoreFailWith(t *testing.T) {
	boom := errors.New("boom")
	s := NewMemoryStore()
	s.FailWith = boom

	err := s.Merge(context.Background(), CollectionPayments, "u1", map[string]any{"status": "paid"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Writes())
}
