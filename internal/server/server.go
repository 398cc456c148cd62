package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/matlog/internal/reconcile"
	"github.com/claude/matlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db             *storage.DB
	rec            *reconcile.Reconciler
	log            *slog.Logger
	apiKey         string
	requiredScopes []string
	router         chi.Router
	lc             *local.Client
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, rec *reconcile.Reconciler, apiKey string, requiredScopes []string, log *slog.Logger) *Server {
	s := &Server{
		db:             db,
		rec:            rec,
		log:            log,
		apiKey:         apiKey,
		requiredScopes: requiredScopes,
		router:         chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the dev fallback to
// Tailscale WhoIs lookups.
func (s *Server) SetTailscale(lc *local.Client) {
	s.lc = lc
}

// SetMCP mounts the MCP transport handler.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/wearable", s.handleWearableIngest)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}", s.handleUpdateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Get("/sessions/{id}/candidates", s.handleCandidates)
		r.Post("/sessions/{id}/match", s.handleConfirmMatch)
		r.Delete("/sessions/{id}/match", s.handleClearMatch)

		r.Get("/partners", s.handlePartners)
		r.Get("/movements", s.handleMovements)
		r.Get("/zones", s.handleZones)
		r.Get("/summary", s.handleSummary)
		r.Get("/wearable/status", s.handleWearableStatus)
	})
}
