package game_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"magnate/internal/game"
)

func TestRunAccrualTickCreditsEligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "earner", 0, 2592000)
	f.seedAccount(t, "idle", 500, 0)

	f.advance(10 * time.Minute)
	stats, err := f.svc.RunAccrualTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Scanned) // zero-income account never enters the scan
	require.Equal(t, 1, stats.Credited)
	require.InDelta(t, 600, stats.TotalAdded, 1e-9)

	earner, err := f.svc.GetAccount(ctx, "earner")
	require.NoError(t, err)
	require.InDelta(t, 600, earner.Balance, 1e-9)

	idle, err := f.svc.GetAccount(ctx, "idle")
	require.NoError(t, err)
	require.Equal(t, float64(500), idle.Balance)
}

func TestRunAccrualTickSkipsFreshAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "earner", 0, 2592000)

	// Credited less than the safety margin ago.
	f.advance(game.AccrualSafetyMargin / 2)
	stats, err := f.svc.RunAccrualTick(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Scanned)
	require.Zero(t, stats.Credited)
}

// failingAccounts rejects conditional writes for one account id.
type failingAccounts struct {
	game.AccountRepository
	failID string
}

func (r *failingAccounts) UpdateConditional(ctx context.Context, acct *game.Account, expected int64) (*game.Account, error) {
	if acct.TelegramID == r.failID {
		return nil, errors.New("write rejected")
	}
	return r.AccountRepository.UpdateConditional(ctx, acct, expected)
}

func TestRunAccrualTickIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "bad", 0, 2592000)
	f.seedAccount(t, "good", 0, 2592000)

	wrapped := &failingAccounts{AccountRepository: f.accounts, failID: "bad"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(wrapped, f.catalog, logger, game.WithNow(func() time.Time { return f.now }))

	f.advance(5 * time.Minute)
	stats, err := svc.RunAccrualTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Scanned)
	require.Equal(t, 1, stats.Credited)
	require.Equal(t, 1, stats.Failed)

	good, err := svc.GetAccount(ctx, "good")
	require.NoError(t, err)
	require.InDelta(t, 300, good.Balance, 1e-9)
}

func TestRunAccrualTickTreatsLostRaceAsSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "busy", 0, 2592000)

	wrapped := &conflictAccounts{AccountRepository: f.accounts, failures: 1}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(wrapped, f.catalog, logger, game.WithNow(func() time.Time { return f.now }))

	f.advance(5 * time.Minute)
	stats, err := svc.RunAccrualTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Zero(t, stats.Failed)
}

// stallingAccounts parks ListAccruable until released, to hold a tick
// open across another trigger.
type stallingAccounts struct {
	game.AccountRepository
	entered chan struct{}
	release chan struct{}
}

func (r *stallingAccounts) ListAccruable(ctx context.Context, cutoff time.Time) ([]*game.Account, error) {
	close(r.entered)
	<-r.release
	return r.AccountRepository.ListAccruable(ctx, cutoff)
}

func TestClockDropsOverlappingTick(t *testing.T) {
	f := newFixture(t)
	wrapped := &stallingAccounts{
		AccountRepository: f.accounts,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(wrapped, f.catalog, logger, game.WithNow(func() time.Time { return f.now }))
	clock := game.NewClock(svc, time.Minute)

	done := make(chan bool)
	go func() { done <- clock.Tick(context.Background()) }()

	<-wrapped.entered
	require.False(t, clock.Tick(context.Background()), "second tick should be dropped while the first runs")

	close(wrapped.release)
	require.True(t, <-done)
}
