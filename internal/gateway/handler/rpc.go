package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"consolenav/internal/gateway/middleware"
	"consolenav/internal/gateway/nav"
	"consolenav/internal/httpclient"
	"consolenav/internal/menu"
	"consolenav/internal/route"
)

const (
	NavigationServiceName = "consolenav.v1.NavigationService"

	GetRoutesProcedure = "/" + NavigationServiceName + "/GetRoutes"
	FindMenuProcedure  = "/" + NavigationServiceName + "/FindMenu"
	RefreshProcedure   = "/" + NavigationServiceName + "/Refresh"
)

type GetRoutesRequest struct{}

type GetRoutesResponse struct {
	State  string             `json:"state"`
	Routes []route.Definition `json:"routes"`
}

type FindMenuRequest struct {
	Path string `json:"path"`
}

type FindMenuResponse struct {
	Menu *menu.Node `json:"menu"`
}

type RefreshRequest struct{}

type RefreshResponse struct {
	State      string `json:"state"`
	Generation uint64 `json:"generation"`
	Nodes      int    `json:"nodes"`
	Warning    string `json:"warning,omitempty"`
}

// jsonCodec lets connect carry plain Go structs as JSON.
type jsonCodec struct {
	name string
}

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// NavigationRPC implements the navigation service over connect.
type NavigationRPC struct {
	svc *nav.Service
}

func NewNavigationRPC(svc *nav.Service) *NavigationRPC {
	return &NavigationRPC{svc: svc}
}

func (h *NavigationRPC) GetRoutes(ctx context.Context, _ *connect.Request[GetRoutesRequest]) (*connect.Response[GetRoutesResponse], error) {
	token := middleware.TokenFrom(ctx)
	snap, err := h.svc.Snapshot(ctx, token)
	if err != nil {
		return nil, connectError(err)
	}
	routes, err := h.svc.Routes(ctx, token)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetRoutesResponse{State: snap.State.String(), Routes: routes}), nil
}

func (h *NavigationRPC) FindMenu(ctx context.Context, req *connect.Request[FindMenuRequest]) (*connect.Response[FindMenuResponse], error) {
	path := strings.TrimSpace(req.Msg.Path)
	if path == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("path is required"))
	}
	n, err := h.svc.FindByPath(ctx, middleware.TokenFrom(ctx), path)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&FindMenuResponse{Menu: n}), nil
}

func (h *NavigationRPC) Refresh(ctx context.Context, _ *connect.Request[RefreshRequest]) (*connect.Response[RefreshResponse], error) {
	snap, err := h.svc.Refresh(ctx, middleware.TokenFrom(ctx))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&RefreshResponse{
		State:      snap.State.String(),
		Generation: snap.Generation,
		Nodes:      menu.Count(snap.Tree),
		Warning:    snap.Warning,
	}), nil
}

// NewNavigationServiceHandler mounts the three procedures and returns the
// service path prefix and its handler.
func NewNavigationServiceHandler(h *NavigationRPC, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GetRoutesProcedure, connect.NewUnaryHandler(GetRoutesProcedure, h.GetRoutes, opts...))
	mux.Handle(FindMenuProcedure, connect.NewUnaryHandler(FindMenuProcedure, h.FindMenu, opts...))
	mux.Handle(RefreshProcedure, connect.NewUnaryHandler(RefreshProcedure, h.Refresh, opts...))
	return "/" + NavigationServiceName + "/", mux
}

func connectError(err error) error {
	var transport *httpclient.TransportError
	switch {
	case errors.Is(err, nav.ErrNoToken), httpclient.IsAuthExpired(err):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case httpclient.IsCancelled(err), errors.Is(err, nav.ErrStaleRefresh):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, nav.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &transport) && transport.Timeout:
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeUnavailable, err)
	}
}
