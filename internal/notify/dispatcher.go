// Package notify fans a message out to a filtered audience over the
// Telegram gateway, mirroring it to live WebSocket clients.
package notify

import (
	"context"
	"log/slog"

	"magnate/internal/game"
	"magnate/internal/push"
)

// Gateway delivers text to one account's chat. The Telegram bot
// satisfies it; tests use a fake.
type Gateway interface {
	SendText(accountID, text string) error
}

// Notification targets every account matching the filters. Zero filter
// values mean everyone.
type Notification struct {
	Message   string  `json:"message"`
	MinLevel  int     `json:"min_level,omitempty"`
	MinIncome float64 `json:"min_income,omitempty"`
	Important bool    `json:"important,omitempty"`
}

// Report counts deliveries per channel. Failures are tallied, never
// fatal: there is no exactly-once guarantee here.
type Report struct {
	Targets   int `json:"targets"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Pushed    int `json:"pushed"`
}

type Dispatcher struct {
	accounts game.AccountRepository
	gateway  Gateway
	registry *push.Registry
	log      *slog.Logger
}

func NewDispatcher(accounts game.AccountRepository, gateway Gateway, registry *push.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{accounts: accounts, gateway: gateway, registry: registry, log: logger}
}

func (d *Dispatcher) Send(ctx context.Context, n Notification) (Report, error) {
	var rep Report
	targets, err := d.accounts.ListByAudience(ctx, game.AudienceFilter{
		MinLevel:  n.MinLevel,
		MinIncome: n.MinIncome,
	})
	if err != nil {
		return rep, err
	}
	rep.Targets = len(targets)

	for _, acct := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if d.gateway != nil {
			if err := d.gateway.SendText(acct.TelegramID, n.Message); err != nil {
				rep.Failed++
				d.log.Warn("notification delivery failed", "account", acct.TelegramID, "err", err)
			} else {
				rep.Delivered++
			}
		}
		if d.registry != nil && d.registry.TrySend(acct.TelegramID, map[string]any{
			"type":      "notification",
			"message":   n.Message,
			"important": n.Important,
		}) {
			rep.Pushed++
		}
	}

	d.log.Info("notification dispatched",
		"targets", rep.Targets,
		"delivered", rep.Delivered,
		"failed", rep.Failed,
		"pushed", rep.Pushed)
	return rep, nil
}
