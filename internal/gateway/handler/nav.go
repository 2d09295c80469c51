// Package handler exposes the navigation service over REST, connect RPC and a
// websocket.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"consolenav/internal/gateway/middleware"
	"consolenav/internal/gateway/nav"
	"consolenav/internal/httpclient"
	"consolenav/internal/route"
)

// NavHandler serves the REST surface.
type NavHandler struct {
	svc    *nav.Service
	logger *zap.Logger
}

func NewNavHandler(svc *nav.Service, logger *zap.Logger) *NavHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavHandler{svc: svc, logger: logger}
}

type routesResponse struct {
	State  string             `json:"state"`
	Routes []route.Definition `json:"routes"`
}

func (h *NavHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	snap, err := h.svc.Snapshot(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	routes, err := h.svc.Routes(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routesResponse{State: snap.State.String(), Routes: routes})
}

func (h *NavHandler) HandleMenus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), middleware.TokenFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   snap.State,
		"menus":   snap.Tree,
		"warning": snap.Warning,
	})
}

func (h *NavHandler) HandleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Navigation(r.Context(), middleware.TokenFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menus": tree})
}

func (h *NavHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	n, err := h.svc.FindByPath(r.Context(), middleware.TokenFrom(r.Context()), path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu": n})
}

func (h *NavHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Refresh(r.Context(), middleware.TokenFrom(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *NavHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.TokenFrom(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// statusFor maps service errors onto HTTP statuses. Superseded requests are
// conflicts, not failures.
func statusFor(err error) (int, string) {
	var (
		statusErr  *httpclient.StatusError
		bizErr     *httpclient.BusinessError
		transport  *httpclient.TransportError
		superseded = httpclient.IsCancelled(err) || errors.Is(err, nav.ErrStaleRefresh)
	)
	switch {
	case errors.Is(err, nav.ErrNoToken), httpclient.IsAuthExpired(err):
		return http.StatusUnauthorized, "unauthenticated"
	case superseded:
		return http.StatusConflict, "superseded"
	case errors.Is(err, nav.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &transport) && transport.Timeout:
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusForbidden || statusErr.Status == http.StatusNotFound {
			return statusErr.Status, "upstream"
		}
		return http.StatusBadGateway, "upstream"
	case errors.As(err, &bizErr), errors.As(err, &transport):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *NavHandler) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	switch {
	case status == http.StatusConflict:
		h.logger.Debug("request superseded", zap.Error(err))
	case status >= 500:
		h.logger.Error("navigation request failed", zap.Error(err))
	default:
		h.logger.Info("navigation request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"code": code, "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
