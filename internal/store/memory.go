// Package store provides the persistence implementations behind the
// game repositories: Postgres for production, in-memory for tests and
// single-node dev runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"magnate/internal/game"
)

// MemoryAccounts implements AccountRepository with mutex-guarded maps.
// Used by tests and dev mode; the conditional-update semantics match
// the Postgres implementation.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]*game.Account
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]*game.Account)}
}

func (r *MemoryAccounts) Get(ctx context.Context, telegramID string) (*game.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[telegramID]
	if !ok {
		return nil, game.ErrNotFound
	}
	return cloneAccount(acct), nil
}

func (r *MemoryAccounts) Upsert(ctx context.Context, acct *game.Account) (*game.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.accounts[acct.TelegramID]; ok {
		// Keep game state; refresh only the profile fields.
		existing.FirstName = acct.FirstName
		existing.Username = acct.Username
		return cloneAccount(existing), nil
	}
	fresh := cloneAccount(acct)
	if fresh.Version == 0 {
		fresh.Version = 1
	}
	if fresh.CreatedAt.IsZero() {
		fresh.CreatedAt = time.Now().UTC()
	}
	r.accounts[fresh.TelegramID] = fresh
	return cloneAccount(fresh), nil
}

func (r *MemoryAccounts) UpdateConditional(ctx context.Context, acct *game.Account, expectedVersion int64) (*game.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[acct.TelegramID]
	if !ok {
		return nil, game.ErrNotFound
	}
	if existing.Version != expectedVersion {
		return nil, game.ErrVersionConflict
	}
	next := cloneAccount(acct)
	next.Version = expectedVersion + 1
	next.CreatedAt = existing.CreatedAt
	r.accounts[next.TelegramID] = next
	return cloneAccount(next), nil
}

func (r *MemoryAccounts) ListAccruable(ctx context.Context, cutoff time.Time) ([]*game.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*game.Account
	for _, acct := range r.accounts {
		if acct.PassiveIncome > 0 && acct.LastAccrualAt.Before(cutoff) {
			out = append(out, cloneAccount(acct))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *MemoryAccounts) ListByAudience(ctx context.Context, f game.AudienceFilter) ([]*game.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*game.Account
	for _, acct := range r.accounts {
		if acct.Blocked {
			continue
		}
		if f.MinLevel > 0 && acct.Level < f.MinLevel {
			continue
		}
		if f.MinIncome > 0 && acct.PassiveIncome < f.MinIncome {
			continue
		}
		out = append(out, cloneAccount(acct))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func cloneAccount(acct *game.Account) *game.Account {
	cp := *acct
	cp.Investments = make([]game.PurchasedInvestment, len(acct.Investments))
	copy(cp.Investments, acct.Investments)
	return &cp
}

// MemoryCatalog implements CatalogRepository in memory.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]*game.Investment
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]*game.Investment)}
}

func (r *MemoryCatalog) Get(ctx context.Context, id string) (*game.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.entries[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *MemoryCatalog) ListActive(ctx context.Context, category string) ([]*game.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*game.Investment
	for _, inv := range r.entries {
		if !inv.Active {
			continue
		}
		if category != "" && inv.Category != category {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryCatalog) Put(ctx context.Context, inv *game.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.entries[cp.ID] = &cp
	return nil
}
