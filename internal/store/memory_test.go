package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"magnate/internal/game"
)

func testAccount(id string) *game.Account {
	return &game.Account{
		TelegramID:    id,
		FirstName:     "Test",
		Level:         1,
		Investments:   []game.PurchasedInvestment{},
		LastAccrualAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryAccountsGetMissing(t *testing.T) {
	r := NewMemoryAccounts()
	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestMemoryAccountsUpsert(t *testing.T) {
	r := NewMemoryAccounts()
	ctx := context.Background()

	created, err := r.Upsert(ctx, testAccount("1"))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Version)
	require.False(t, created.CreatedAt.IsZero())

	// Upsert on an existing account must not reset game state.
	created.Balance = 900
	_, err = r.UpdateConditional(ctx, created, created.Version)
	require.NoError(t, err)

	again := testAccount("1")
	again.FirstName = "Renamed"
	got, err := r.Upsert(ctx, again)
	require.NoError(t, err)
	require.Equal(t, float64(900), got.Balance)
	require.Equal(t, "Renamed", got.FirstName)
}

func TestMemoryAccountsConditionalUpdate(t *testing.T) {
	r := NewMemoryAccounts()
	ctx := context.Background()

	acct, err := r.Upsert(ctx, testAccount("1"))
	require.NoError(t, err)

	acct.Balance = 42
	updated, err := r.UpdateConditional(ctx, acct, acct.Version)
	require.NoError(t, err)
	require.Equal(t, float64(42), updated.Balance)
	require.Equal(t, acct.Version+1, updated.Version)

	// Replaying the same expected version must fail.
	_, err = r.UpdateConditional(ctx, acct, acct.Version)
	require.ErrorIs(t, err, game.ErrVersionConflict)

	_, err = r.UpdateConditional(ctx, testAccount("ghost"), 1)
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestMemoryAccountsClonesOnRead(t *testing.T) {
	r := NewMemoryAccounts()
	ctx := context.Background()

	seed := testAccount("1")
	seed.Investments = []game.PurchasedInvestment{{InvestmentID: "a", Level: 1}}
	_, err := r.Upsert(ctx, seed)
	require.NoError(t, err)

	got, err := r.Get(ctx, "1")
	require.NoError(t, err)
	got.Balance = 999
	got.Investments[0].Level = 99

	fresh, err := r.Get(ctx, "1")
	require.NoError(t, err)
	require.Zero(t, fresh.Balance)
	require.Equal(t, 1, fresh.Investments[0].Level)
}

func TestMemoryAccountsListAccruable(t *testing.T) {
	r := NewMemoryAccounts()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	earner := testAccount("earner")
	earner.PassiveIncome = 100
	earner.LastAccrualAt = base.Add(-time.Hour)
	_, err := r.Upsert(ctx, earner)
	require.NoError(t, err)

	fresh := testAccount("fresh")
	fresh.PassiveIncome = 100
	fresh.LastAccrualAt = base
	_, err = r.Upsert(ctx, fresh)
	require.NoError(t, err)

	idle := testAccount("idle")
	idle.LastAccrualAt = base.Add(-time.Hour)
	_, err = r.Upsert(ctx, idle)
	require.NoError(t, err)

	out, err := r.ListAccruable(ctx, base.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "earner", out[0].TelegramID)
}

func TestMemoryAccountsListByAudience(t *testing.T) {
	r := NewMemoryAccounts()
	ctx := context.Background()

	for _, seed := range []struct {
		id      string
		level   int
		income  float64
		blocked bool
	}{
		{"novice", 1, 0, false},
		{"mogul", 8, 50000, false},
		{"banned", 9, 90000, true},
	} {
		acct := testAccount(seed.id)
		acct.Level = seed.level
		acct.PassiveIncome = seed.income
		acct.Blocked = seed.blocked
		_, err := r.Upsert(ctx, acct)
		require.NoError(t, err)
	}

	all, err := r.ListByAudience(ctx, game.AudienceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2) // blocked accounts never receive anything

	rich, err := r.ListByAudience(ctx, game.AudienceFilter{MinLevel: 5, MinIncome: 10000})
	require.NoError(t, err)
	require.Len(t, rich, 1)
	require.Equal(t, "mogul", rich[0].TelegramID)
}

func TestMemoryCatalog(t *testing.T) {
	r := NewMemoryCatalog()
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	require.ErrorIs(t, err, game.ErrNotFound)

	entries := []game.Investment{
		{ID: "b", Name: "B", Category: "business", Active: true, SortOrder: 1},
		{ID: "a", Name: "A", Category: "finances", Active: true, SortOrder: 0},
		{ID: "c", Name: "C", Category: "business", Active: false, SortOrder: 2},
	}
	for i := range entries {
		require.NoError(t, r.Put(ctx, &entries[i]))
	}

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "A", got.Name)

	active, err := r.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "a", active[0].ID) // sort order wins
	require.Equal(t, "b", active[1].ID)

	business, err := r.ListActive(ctx, "business")
	require.NoError(t, err)
	require.Len(t, business, 1)
	require.Equal(t, "b", business[0].ID)
}
