// Package api provides the HTTP transport: the JSON-RPC message endpoint,
// the SSE handshake channel, and CORS handling for browser-based clients.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"membridge/internal/dispatch"
	"membridge/internal/infra/config"
	"membridge/internal/infra/eventbus"
	"membridge/internal/tool"
)

// NewRouter creates the chi router serving the protocol endpoints:
//
//	GET  /sse               streaming handshake + keep-alive
//	POST /mcp, /message, /  one call envelope in, one response envelope out
//	OPTIONS *               CORS preflight, 204
//
// Anything else falls through to chi's 404/405 defaults.
func NewRouter(cfg config.Config, registry *tool.Registry, executor *dispatch.Executor, bus eventbus.EventBus) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	h := &Handler{
		cfg:      cfg,
		registry: registry,
		executor: executor,
		bus:      bus,
	}

	r.Get("/sse", h.handleSSE)
	r.Post("/mcp", h.handleMessage)
	r.Post("/message", h.handleMessage)
	r.Post("/", h.handleMessage)

	return r
}

// cors applies permissive CORS headers on every response and answers
// preflight requests directly. The protocol runs on a trusted local
// interface; the headers only exist so browser clients can reach it.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
