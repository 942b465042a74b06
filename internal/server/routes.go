// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 9:12:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"

	"github.com/ternarybob/screener/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (screening progress)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Environments
	// GET (list), POST (create); GET/PUT/DELETE /{id}; POST /{id}/run
	mux.HandleFunc("/api/environments", s.handleEnvironmentsRoute)
	mux.HandleFunc(handlers.EnvironmentPrefix, s.handleEnvironmentRoutes)

	// API routes - Ad hoc screening
	mux.HandleFunc("/api/screen", s.app.ScreenHandler.ScreenHandler)
	mux.HandleFunc("/api/criteria", s.app.ScreenHandler.CriteriaHandler)

	// API routes - Reports
	mux.HandleFunc(handlers.ReportPrefix, s.app.ReportHandler.GetReportHandler)

	// API routes - System
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	if s.app.Metrics != nil {
		mux.Handle("/metrics", s.app.Metrics.Handler())
	}

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleEnvironmentsRoute routes /api/environments requests (list and create)
func (s *Server) handleEnvironmentsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.EnvironmentHandler.ListHandler,
		s.app.EnvironmentHandler.CreateHandler,
	)
}

// handleEnvironmentRoutes routes /api/environments/{id} and /api/environments/{id}/run
func (s *Server) handleEnvironmentRoutes(w http.ResponseWriter, r *http.Request) {
	segments := handlers.PathSegments(r.URL.Path, handlers.EnvironmentPrefix)

	switch {
	case len(segments) == 1:
		RouteResourceItem(w, r,
			s.app.EnvironmentHandler.GetHandler,
			s.app.EnvironmentHandler.UpdateHandler,
			s.app.EnvironmentHandler.DeleteHandler,
		)
	case len(segments) == 2 && segments[1] == "run":
		s.app.EnvironmentHandler.RunHandler(w, r)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
