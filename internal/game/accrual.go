package game

import (
	"context"
	"sync"
	"time"
)

// RunAccrualTick performs one accrual scan: every account with positive
// passive income whose last credit is at least the safety margin old
// gets the income earned since then. Accounts are processed one at a
// time; one account failing never aborts the scan, and a lost
// conditional write is a benign skip picked up by the next tick.
func (s *Service) RunAccrualTick(ctx context.Context) (TickStats, error) {
	var stats TickStats
	now := s.now().UTC()

	accounts, err := s.accounts.ListAccruable(ctx, now.Add(-AccrualSafetyMargin))
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(accounts)

	for _, acct := range accounts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		added, updated, err := s.creditElapsed(ctx, acct, s.now().UTC())
		switch {
		case err == ErrConcurrentUpdate:
			stats.Skipped++
			s.log.Debug("accrual skipped, concurrent update", "account", acct.TelegramID)
		case err != nil:
			stats.Failed++
			s.log.Error("accrual failed", "account", acct.TelegramID, "err", err)
		case updated == nil:
			stats.Skipped++
		default:
			stats.Credited++
			stats.TotalAdded += added
		}
	}
	return stats, nil
}

// Clock drives RunAccrualTick on a fixed wall-clock interval. A tick
// that overruns the interval causes the next trigger to be dropped; at
// most one scan runs at a time.
type Clock struct {
	svc      *Service
	interval time.Duration
	running  sync.Mutex
}

func NewClock(svc *Service, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Clock{svc: svc, interval: interval}
}

// Run blocks until ctx is done.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.svc.log.Info("accrual clock started", "interval", c.interval.String())
	for {
		select {
		case <-ctx.Done():
			c.svc.log.Info("accrual clock stopped")
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one guarded scan. Returns false when a previous scan is
// still in flight and this trigger was dropped.
func (c *Clock) Tick(ctx context.Context) bool {
	if !c.running.TryLock() {
		c.svc.log.Warn("accrual tick overlapped, skipping")
		return false
	}
	defer c.running.Unlock()

	started := time.Now()
	stats, err := c.svc.RunAccrualTick(ctx)
	if err != nil {
		c.svc.log.Error("accrual tick failed", "err", err)
		return true
	}
	c.svc.log.Info("accrual tick complete",
		"scanned", stats.Scanned,
		"credited", stats.Credited,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"total_added", stats.TotalAdded,
		"took", time.Since(started).String())
	return true
}
