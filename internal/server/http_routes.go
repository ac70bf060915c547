package server

import (
	"net/http"

	"resumelens/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	// chain applies the standard middleware stack to a session-scoped handler
	chain := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.sessionMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// Account endpoints
	mux.HandleFunc("POST /auth/signup", chain(s.createSignupHandler(om)))
	mux.HandleFunc("POST /auth/login", chain(s.createLoginHandler(om)))
	mux.HandleFunc("POST /auth/logout", chain(s.createLogoutHandler(om)))
	mux.HandleFunc("GET /auth/me", chain(s.currentUserHandler))

	// UI shell endpoints
	mux.HandleFunc("GET /ui/state", chain(s.uiStateHandler))
	mux.HandleFunc("POST /ui/tabs/{tab}", chain(s.switchTabHandler))
	mux.HandleFunc("POST /ui/modals/{modal}/open", chain(s.openModalHandler))
	mux.HandleFunc("POST /ui/modals/{modal}/close", chain(s.closeModalHandler))

	// Upload widget endpoints
	mux.HandleFunc("POST /widgets/{widget}/file", chain(s.createUploadHandler(om, "picker")))
	mux.HandleFunc("POST /widgets/{widget}/drop", chain(s.createUploadHandler(om, "drop")))
	mux.HandleFunc("GET /widgets/{widget}/selection", chain(s.widgetSelectionHandler))
	mux.HandleFunc("DELETE /widgets/{widget}/selection", chain(s.clearWidgetHandler))
	mux.HandleFunc("GET /previews/{token}", chain(s.previewHandler))

	// Analysis endpoints
	mux.HandleFunc("POST /analyze", chain(s.createAnalyzeHandler(om)))
	mux.HandleFunc("POST /ats/check", chain(s.createATSCheckHandler(om)))

	return mux
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}
