package server

import (
	"net/http"

	"consolenav/internal/gateway/handler"
	"consolenav/internal/gateway/middleware"
)

func NewMux(
	navHandler *handler.NavHandler,
	navRPC *handler.NavigationRPC,
	navSocket *handler.NavSocket,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(handler.NewNavigationServiceHandler(navRPC))

	// REST Handlers
	mux.HandleFunc("GET /api/nav/routes", navHandler.HandleRoutes)
	mux.HandleFunc("GET /api/nav/menus", navHandler.HandleMenus)
	mux.HandleFunc("GET /api/nav/tree", navHandler.HandleTree)
	mux.HandleFunc("GET /api/nav/lookup", navHandler.HandleLookup)
	mux.HandleFunc("POST /api/nav/refresh", navHandler.HandleRefresh)
	mux.HandleFunc("POST /api/session/logout", navHandler.HandleLogout)
	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	// Live updates
	mux.HandleFunc("GET /ws/nav", navSocket.HandleNavWS)

	// Middleware
	return middleware.CORS(middleware.Session(mux))
}
