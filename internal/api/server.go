package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"magnate/internal/config"
	"magnate/internal/game"
	"magnate/internal/notify"
	"magnate/internal/push"
)

type Server struct {
	cfg      config.Config
	log      *slog.Logger
	game     *game.Service
	registry *push.Registry
	notify   *notify.Dispatcher
	mux      *chi.Mux
	upgrader websocket.Upgrader
}

func New(cfg config.Config, logger *slog.Logger, gameSvc *game.Service, registry *push.Registry, dispatcher *notify.Dispatcher) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		game:     gameSvc,
		registry: registry,
		notify:   dispatcher,
		mux:      chi.NewRouter(),
		upgrader: websocket.Upgrader{
			// The webapp is served from Telegram's domain.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/accounts/{id}", s.handleGetAccount)
		r.Post("/accounts/{id}/income/collect", s.handleCollectIncome)
		r.Post("/accounts/{id}/investments/{inv}/purchase", s.handlePurchase)
		r.Get("/catalog", s.handleCatalog)
		r.Post("/notifications", s.handleNotify)
		r.Get("/ws", s.handleWS)
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.game.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleCollectIncome(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.CollectIncome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.game.PurchaseInvestment(r.Context(), id, chi.URLParam(r, "inv"))
	if err != nil {
		if errors.Is(err, game.ErrInsufficientFunds) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   err.Error(),
				"balance": out.Balance,
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := s.game.Catalog(r.Context(),
		strings.TrimSpace(r.URL.Query().Get("account_id")),
		strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications disabled")
		return
	}
	var in notify.Notification
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	rep, err := s.notify.Send(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleWS upgrades the connection and parks it in the push registry
// until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if _, err := s.game.GetAccount(r.Context(), accountID); err != nil {
		writeDomainError(w, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("ws upgrade failed", "err", err)
		return
	}
	s.registry.Register(accountID, conn)
	go func() {
		defer func() {
			s.registry.Unregister(accountID, conn)
			_ = conn.Close()
		}()
		for {
			// Clients only listen; reading drives close detection.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrAccountNotFound), errors.Is(err, game.ErrInvestmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvestmentInactive), errors.Is(err, game.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "try again later")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
