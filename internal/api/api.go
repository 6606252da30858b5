// Package api exposes the orchestrator over HTTP. Every handler is a thin
// pass-through to the connection manager, scheduler, or storage.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warmpool/internal/netguard"
	"warmpool/internal/session"
	"warmpool/internal/store"
	"warmpool/internal/warmer"
)

// API holds the collaborators the HTTP surface delegates to.
type API struct {
	Store   *store.SQLiteStore
	Manager *session.Manager
	Guard   *netguard.Guard
	Warmer  *warmer.Warmer
	Log     *slog.Logger
	Router  *chi.Mux
}

// NewRouter builds the chi router with all orchestrator routes mounted.
func NewRouter(st *store.SQLiteStore, mgr *session.Manager, guard *netguard.Guard, w *warmer.Warmer, log *slog.Logger) *chi.Mux {
	a := &API{
		Store:   st,
		Manager: mgr,
		Guard:   guard,
		Warmer:  w,
		Log:     log.With("component", "api"),
		Router:  chi.NewRouter(),
	}
	r := a.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	a.routes()
	return r
}

func (a *API) routes() {
	r := a.Router

	r.Get("/api/health", a.handleHealth)

	r.Get("/api/accounts", a.handleListAccounts)
	r.Post("/api/accounts", a.handleCreateAccount)
	r.Delete("/api/accounts/{id}", a.handleDeleteAccount)
	r.Post("/api/accounts/{id}/connect", a.handleConnect)
	r.Post("/api/accounts/{id}/disconnect", a.handleDisconnect)
	r.Get("/api/accounts/{id}/qr", a.handleQRPNG)
	r.Get("/api/accounts/{id}/qr.txt", a.handleQRText)
	r.Put("/api/accounts/{id}/network", a.handleChangeNetwork)
	r.Get("/api/accounts/{id}/network/check", a.handleNetworkCheck)

	r.Get("/api/proxies", a.handleListProxies)
	r.Post("/api/proxies", a.handleCreateProxy)
	r.Put("/api/proxies/{id}", a.handleUpdateProxy)
	r.Delete("/api/proxies/{id}", a.handleDeleteProxy)

	r.Get("/api/templates", a.handleListTemplates)
	r.Post("/api/templates", a.handleCreateTemplate)
	r.Put("/api/templates/{id}", a.handleUpdateTemplate)
	r.Delete("/api/templates/{id}", a.handleDeleteTemplate)

	r.Get("/api/media", a.handleListMedia)
	r.Post("/api/media", a.handleCreateMedia)
	r.Delete("/api/media/{id}", a.handleDeleteMedia)

	r.Get("/api/interactions", a.handleListInteractions)
	r.Get("/api/interactions/stats", a.handleInteractionStats)

	r.Post("/api/warmer/start", a.handleWarmerStart)
	r.Post("/api/warmer/stop", a.handleWarmerStop)
	r.Get("/api/warmer/status", a.handleWarmerStatus)

	r.Get("/api/config/delay", a.handleGetDelayConfig)
	r.Put("/api/config/delay", a.handleSetDelayConfig)
	r.Get("/api/config/autoreply", a.handleGetAutoReplyConfig)
	r.Put("/api/config/autoreply", a.handleSetAutoReplyConfig)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().Format(time.RFC3339),
	})
}

// writeDomainErr maps the error taxonomy onto HTTP status codes:
// configuration problems are the caller's fault, a non-connected account is a
// state conflict, an unverifiable egress path is a bad upstream, anything
// else is internal.
func (a *API) writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case session.IsConfigurationError(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotConnected):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrBindingUnverified):
		writeErr(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
