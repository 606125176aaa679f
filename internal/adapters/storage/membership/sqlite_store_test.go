package membership_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parker/internal/adapters/storage/membership"
	"parker/internal/adapters/storage/storagetest"
	domain "parker/internal/domain/membership"
)

func TestSQLiteStore_CreateListCount(t *testing.T) {
	db := storagetest.Open(t)
	_, err := db.Exec(`INSERT INTO users (id, email, created_at, updated_at) VALUES ('u1', 'jo@parker.dev', 'x', 'x')`)
	require.NoError(t, err)
	store := membership.NewSQLiteStore(db)
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	first := domain.Application{
		ID: "m1", UserID: "u1", Tier: "beginners",
		Education: "BSc Computer Science", Experience: "Two years", Skills: "Go", Motivation: "Learning",
		PaymentReference: "stub-1", PaymentStatus: domain.PaymentStubbed, CreatedAt: now,
	}
	second := first
	second.ID, second.Tier, second.CreatedAt = "m2", "master", now.Add(time.Hour)
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	got, err := store.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	list, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m2", list[0].ID)

	counts, err := store.CountByTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"beginners": 1, "master": 1}, counts)

	_, err = store.GetByID(ctx, "none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
