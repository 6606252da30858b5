package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"warmpool/internal/state"
	"warmpool/internal/store"
)

type accountView struct {
	store.Account
	RuntimeStatus state.State `json:"runtime_status"`
}

func (a *API) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.Store.Accounts.List(r.Context())
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, accountView{Account: acc, RuntimeStatus: a.Manager.Status(acc.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

type createAccountReq struct {
	DisplayName string            `json:"display_name"`
	NetworkMode store.NetworkMode `json:"network_mode"`
	ProxyID     string            `json:"proxy_id"`
}

func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DisplayName == "" {
		writeErr(w, http.StatusBadRequest, "display_name required")
		return
	}
	if req.NetworkMode == "" {
		req.NetworkMode = store.NetworkDirect
	}
	if req.NetworkMode == store.NetworkProxy && req.ProxyID == "" {
		writeErr(w, http.StatusBadRequest, "proxy mode requires proxy_id")
		return
	}

	acc := &store.Account{
		ID:          uuid.NewString(),
		DisplayName: req.DisplayName,
		Status:      state.StateDisconnected,
		NetworkMode: req.NetworkMode,
		ProxyID:     req.ProxyID,
	}
	if err := a.Store.Accounts.Create(r.Context(), acc); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = a.Manager.Close(id)
	if err := a.Store.Accounts.Delete(r.Context(), id); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1})
}

func (a *API) handleConnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Manager.Open(r.Context(), id); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": a.Manager.Status(id)})
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Manager.Close(id); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": a.Manager.Status(id)})
}

func (a *API) handleQRPNG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	code := a.Manager.QRCode(id)
	if code == "" {
		writeErr(w, http.StatusNotFound, "no scan code pending")
		return
	}
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	// Scan codes rotate; never let a proxy cache a stale one.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (a *API) handleQRText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	code := a.Manager.QRCode(id)
	if code == "" {
		writeErr(w, http.StatusNotFound, "no scan code pending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": code})
}

type changeNetworkReq struct {
	NetworkMode store.NetworkMode `json:"network_mode"`
	ProxyID     string            `json:"proxy_id"`
}

func (a *API) handleChangeNetwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req changeNetworkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.NetworkMode != store.NetworkDirect && req.NetworkMode != store.NetworkProxy {
		writeErr(w, http.StatusBadRequest, "network_mode must be direct or proxy")
		return
	}
	if err := a.Manager.ChangeNetworkMode(r.Context(), id, req.NetworkMode, req.ProxyID); err != nil {
		a.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"network_mode": req.NetworkMode, "proxy_id": req.ProxyID})
}

// handleNetworkCheck runs the egress probe on demand for the account's
// current binding and reports what the outside world would see.
func (a *API) handleNetworkCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acc, err := a.Store.Accounts.GetByID(r.Context(), id)
	if err != nil {
		a.writeDomainErr(w, err)
		return
	}

	var proxy *store.Proxy
	if acc.NetworkMode == store.NetworkProxy {
		if acc.ProxyID == "" {
			writeErr(w, http.StatusBadRequest, "network mode is proxy but no proxy assigned")
			return
		}
		proxy, err = a.Store.Proxies.GetByID(r.Context(), acc.ProxyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeErr(w, http.StatusBadRequest, "assigned proxy not found")
				return
			}
			a.writeDomainErr(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, a.Guard.Verify(r.Context(), proxy))
}
