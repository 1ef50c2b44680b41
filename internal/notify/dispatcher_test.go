package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"magnate/internal/game"
	"magnate/internal/push"
	"magnate/internal/store"
)

type fakeGateway struct {
	sent   map[string][]string
	failID string
}

func (g *fakeGateway) SendText(accountID, text string) error {
	if accountID == g.failID {
		return errors.New("chat not found")
	}
	if g.sent == nil {
		g.sent = make(map[string][]string)
	}
	g.sent[accountID] = append(g.sent[accountID], text)
	return nil
}

func seedAccounts(t *testing.T, accounts *store.MemoryAccounts) {
	t.Helper()
	ctx := context.Background()
	for _, seed := range []struct {
		id     string
		level  int
		income float64
	}{
		{"novice", 1, 0},
		{"trader", 4, 20000},
		{"mogul", 9, 150000},
	} {
		_, err := accounts.Upsert(ctx, &game.Account{
			TelegramID:    seed.id,
			Level:         seed.level,
			PassiveIncome: seed.income,
		})
		require.NoError(t, err)
	}
}

func newTestDispatcher(accounts game.AccountRepository, gw Gateway, registry *push.Registry) *Dispatcher {
	return NewDispatcher(accounts, gw, registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendToEveryone(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	seedAccounts(t, accounts)
	gw := &fakeGateway{}
	d := newTestDispatcher(accounts, gw, nil)

	rep, err := d.Send(context.Background(), Notification{Message: "patch notes"})
	require.NoError(t, err)
	require.Equal(t, 3, rep.Targets)
	require.Equal(t, 3, rep.Delivered)
	require.Zero(t, rep.Failed)
	require.Equal(t, []string{"patch notes"}, gw.sent["mogul"])
}

func TestSendFiltersAudience(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	seedAccounts(t, accounts)
	gw := &fakeGateway{}
	d := newTestDispatcher(accounts, gw, nil)

	rep, err := d.Send(context.Background(), Notification{
		Message:   "whale event",
		MinLevel:  5,
		MinIncome: 100000,
	})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Targets)
	require.Equal(t, 1, rep.Delivered)
	require.NotContains(t, gw.sent, "novice")
	require.Contains(t, gw.sent, "mogul")
}

func TestSendTalliesGatewayFailures(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	seedAccounts(t, accounts)
	gw := &fakeGateway{failID: "trader"}
	d := newTestDispatcher(accounts, gw, nil)

	rep, err := d.Send(context.Background(), Notification{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, 3, rep.Targets)
	require.Equal(t, 2, rep.Delivered)
	require.Equal(t, 1, rep.Failed)
}

type countingConn struct{ writes int }

func (c *countingConn) WriteMessage(messageType int, data []byte) error {
	c.writes++
	return nil
}
func (c *countingConn) Close() error { return nil }

func TestSendMirrorsToLiveConnections(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	seedAccounts(t, accounts)
	registry := push.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := &countingConn{}
	registry.Register("trader", conn)

	gw := &fakeGateway{}
	d := newTestDispatcher(accounts, gw, registry)

	rep, err := d.Send(context.Background(), Notification{Message: "hi", Important: true})
	require.NoError(t, err)
	require.Equal(t, 3, rep.Delivered)
	require.Equal(t, 1, rep.Pushed) // only trader holds a live socket
	require.Equal(t, 1, conn.writes)
}
