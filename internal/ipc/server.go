package ipc

import (
	"context"
	"net/http"
)

// Server wraps an HTTP server with engine-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	srv := &http.Server{
		Addr:    listenAddr,
		Handler: corsMiddleware(NewMux(h)),
	}
	return &Server{httpServer: srv}
}

// NewMux builds the API routing for the handler.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Agent endpoints.
	mux.HandleFunc("GET /api/v1/agents", h.ListAgents)
	mux.HandleFunc("GET /api/v1/agents/{agentID}", h.GetAgent)

	// Order endpoints.
	mux.HandleFunc("POST /api/v1/orders", h.DispatchOrder)
	mux.HandleFunc("GET /api/v1/agents/{agentID}/orders", h.GetOrders)
	mux.HandleFunc("POST /api/v1/agents/{agentID}/orders", h.PostOrder)
	mux.HandleFunc("DELETE /api/v1/agents/{agentID}/orders/queue", h.ClearQueue)

	// Auto-order endpoints.
	mux.HandleFunc("GET /api/v1/agents/{agentID}/auto-orders", h.ListAutoOrders)
	mux.HandleFunc("POST /api/v1/agents/{agentID}/auto-orders", h.PostAutoOrder)

	// Event endpoints.
	mux.HandleFunc("GET /api/v1/agents/{agentID}/events", h.ListAgentEvents)
	mux.HandleFunc("GET /api/v1/events", h.ListEvents)
	mux.HandleFunc("GET /api/v1/events/feed", h.StreamEvents)

	// Snapshot endpoint.
	mux.HandleFunc("GET /api/v1/snapshot", h.GetSnapshot)

	return mux
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for local tooling access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
