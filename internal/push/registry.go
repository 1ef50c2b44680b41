// Package push keeps track of live WebSocket connections per account
// and offers best-effort delivery to them. The registry is an explicit
// dependency of whoever fans out messages, not process-global state.
package push

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Conn is the slice of a websocket connection the registry needs.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

const textMessage = 1 // websocket.TextMessage

type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
	log   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{conns: make(map[string]Conn), log: logger}
}

// Register attaches a live connection to an account. A previous
// connection for the same account is closed and replaced.
func (r *Registry) Register(accountID string, conn Conn) {
	r.mu.Lock()
	old := r.conns[accountID]
	r.conns[accountID] = conn
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// Unregister drops the account's connection if the given one is still
// current. Safe to call with a connection that was already replaced.
func (r *Registry) Unregister(accountID string, conn Conn) {
	r.mu.Lock()
	if r.conns[accountID] == conn {
		delete(r.conns, accountID)
	}
	r.mu.Unlock()
}

// TrySend marshals the payload and writes it to the account's live
// connection. Fire and forget: a write failure drops the connection and
// reports false, it never propagates.
func (r *Registry) TrySend(accountID string, payload any) bool {
	r.mu.RLock()
	conn := r.conns[accountID]
	r.mu.RUnlock()
	if conn == nil {
		return false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Error("push payload encode failed", "account", accountID, "err", err)
		return false
	}
	if err := conn.WriteMessage(textMessage, data); err != nil {
		r.log.Debug("push write failed, dropping connection", "account", accountID, "err", err)
		r.Unregister(accountID, conn)
		_ = conn.Close()
		return false
	}
	return true
}

// Size reports how many accounts currently hold a live connection.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
