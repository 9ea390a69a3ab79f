package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/crm"
)

func TestLeadStoreScopesByUser(t *testing.T) {
	t.Parallel()

	store := NewLeadStore()
	ctx := context.Background()
	l := crm.Lead{ID: "1", UserID: 1, Nome: "A", Stage: crm.StageNew}

	require.NoError(t, store.Create(ctx, l))
	require.ErrorIs(t, store.Create(ctx, crm.Lead{ID: "2", UserID: 1, Nome: "A"}), crm.ErrDuplicate)
	require.NoError(t, store.Create(ctx, crm.Lead{ID: "3", UserID: 2, Nome: "A", Stage: crm.StageNew}))

	_, err := store.Get(ctx, 2, "1")
	require.ErrorIs(t, err, crm.ErrNotFound)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	moved, err := store.UpdateStage(ctx, 1, "1", crm.StageLost, at)
	require.NoError(t, err)
	assert.Equal(t, at, moved.UpdatedAt)

	counts, err := store.CountByStage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[crm.Stage]int64{crm.StageLost: 1}, counts)

	keys, err := store.ExistingKeys(ctx, 2, []string{"A___", "B___"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A___"}, keys)

	require.NoError(t, store.Delete(ctx, 1, "1"))
	list, err := store.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
