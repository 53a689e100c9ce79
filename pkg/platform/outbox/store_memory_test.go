package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	first := NewEntry("filing", "f-1", "filing_submitted", []byte(`{"n":1}`), now)
	second := NewEntry("filing", "f-2", "filing_submitted", []byte(`{"n":2}`), now.Add(time.Second))
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	pending, err := store.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, store.MarkProcessed(ctx, []uuid.UUID{first.ID}, now))

	pending, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Len(t, store.All(), 2)
}

func TestNewEntry(t *testing.T) {
	at := time.Now()
	e := NewEntry("user", "u-1", "filing_started", []byte(`{}`), at)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, at, e.CreatedAt)
	assert.Nil(t, e.ProcessedAt)
}
