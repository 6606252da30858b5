package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"warmpool/internal/store"
)

func (a *API) handleListProxies(w http.ResponseWriter, r *http.Request) {
	proxies, err := a.Store.Proxies.List(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proxies)
}

type upsertProxyReq struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Scheme   string `json:"scheme"`
	Username string `json:"username"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (req *upsertProxyReq) validate() string {
	if req.Host == "" || req.Port == 0 {
		return "host and port required"
	}
	switch req.Scheme {
	case "http", "https", "socks4", "socks5":
		return ""
	default:
		return "scheme must be one of http, https, socks4, socks5"
	}
}

func (a *API) handleCreateProxy(w http.ResponseWriter, r *http.Request) {
	var req upsertProxyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &store.Proxy{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Host:     req.Host,
		Port:     req.Port,
		Scheme:   req.Scheme,
		Username: req.Username,
		Password: req.Password,
		Active:   active,
	}
	if err := a.Store.Proxies.Create(r.Context(), p); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleUpdateProxy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req upsertProxyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &store.Proxy{
		ID:       id,
		Name:     req.Name,
		Host:     req.Host,
		Port:     req.Port,
		Scheme:   req.Scheme,
		Username: req.Username,
		Password: req.Password,
		Active:   active,
	}
	if err := a.Store.Proxies.Update(r.Context(), p); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleDeleteProxy(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Proxies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (a *API) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := a.Store.Templates.List(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

type upsertTemplateReq struct {
	Content   string `json:"content"`
	Category  string `json:"category"`
	AccountID string `json:"account_id"`
	Active    *bool  `json:"active"`
}

func (a *API) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req upsertTemplateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		writeErr(w, http.StatusBadRequest, "content required")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	t := &store.Template{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Category:  req.Category,
		AccountID: req.AccountID,
		Active:    active,
	}
	if err := a.Store.Templates.Create(r.Context(), t); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req upsertTemplateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		writeErr(w, http.StatusBadRequest, "content required")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	t := &store.Template{
		ID:        id,
		Content:   req.Content,
		Category:  req.Category,
		AccountID: req.AccountID,
		Active:    active,
	}
	if err := a.Store.Templates.Update(r.Context(), t); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (a *API) handleListMedia(w http.ResponseWriter, r *http.Request) {
	media, err := a.Store.Media.List(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

type createMediaReq struct {
	Kind store.MediaKind `json:"kind"`
	Path string          `json:"path"`
}

func (a *API) handleCreateMedia(w http.ResponseWriter, r *http.Request) {
	var req createMediaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Kind != store.MediaImage && req.Kind != store.MediaSticker {
		writeErr(w, http.StatusBadRequest, "kind must be image or sticker")
		return
	}
	if req.Path == "" {
		writeErr(w, http.StatusBadRequest, "path required")
		return
	}
	m := &store.Media{ID: uuid.NewString(), Kind: req.Kind, Path: req.Path}
	if err := a.Store.Media.Create(r.Context(), m); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Media.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (a *API) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	interactions, err := a.Store.Interactions.Recent(r.Context(), limit)
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interactions)
}

func (a *API) handleInteractionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Store.Interactions.Stats(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleWarmerStart(w http.ResponseWriter, r *http.Request) {
	a.Warmer.Start()
	writeJSON(w, http.StatusOK, a.Warmer.Status())
}

func (a *API) handleWarmerStop(w http.ResponseWriter, r *http.Request) {
	a.Warmer.Stop()
	writeJSON(w, http.StatusOK, a.Warmer.Status())
}

func (a *API) handleWarmerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Warmer.Status())
}

func (a *API) handleGetDelayConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.Store.Configs.GetDelay(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) handleSetDelayConfig(w http.ResponseWriter, r *http.Request) {
	var cfg store.DelayConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch cfg.Strategy {
	case store.DelayFixed, store.DelayRandom, store.DelayHuman, store.DelayProgressive:
	default:
		writeErr(w, http.StatusBadRequest, "strategy must be one of fixed, random, human, progressive")
		return
	}
	if err := a.Store.Configs.SetDelay(r.Context(), &cfg); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}

func (a *API) handleGetAutoReplyConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.Store.Configs.GetAutoReply(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) handleSetAutoReplyConfig(w http.ResponseWriter, r *http.Request) {
	var cfg store.AutoReplyConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if cfg.ReplyDelaySeconds < 0 {
		writeErr(w, http.StatusBadRequest, "reply_delay_seconds must be >= 0")
		return
	}
	if err := a.Store.Configs.SetAutoReply(r.Context(), &cfg); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}
