package game

import (
	"context"
	"errors"
	"time"
)

// Repository-level sentinels. The service translates them into domain
// errors before they reach callers.
var (
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict reports a conditional update whose expected
	// version no longer matched at write time.
	ErrVersionConflict = errors.New("version conflict")
)

// AudienceFilter narrows an account scan for notification fan-out.
// Zero values mean "no constraint".
type AudienceFilter struct {
	MinLevel  int
	MinIncome float64
}

// AccountRepository persists player accounts. UpdateConditional is the
// single mutation primitive: it writes the whole account only if the
// stored version still equals expectedVersion, and bumps the version on
// success. Both the accrual clock and the purchase transaction go
// through it, so the two paths are linearized per account.
type AccountRepository interface {
	Get(ctx context.Context, telegramID string) (*Account, error)
	Upsert(ctx context.Context, acct *Account) (*Account, error)
	UpdateConditional(ctx context.Context, acct *Account, expectedVersion int64) (*Account, error)
	// ListAccruable returns accounts with positive passive income whose
	// last accrual happened before cutoff.
	ListAccruable(ctx context.Context, cutoff time.Time) ([]*Account, error)
	ListByAudience(ctx context.Context, f AudienceFilter) ([]*Account, error)
}

// CatalogRepository persists admin-managed investment entries.
type CatalogRepository interface {
	Get(ctx context.Context, id string) (*Investment, error)
	ListActive(ctx context.Context, category string) ([]*Investment, error)
	Put(ctx context.Context, inv *Investment) error
}
