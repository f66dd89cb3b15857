// Package api declares the HTTP routes of the plan dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/swingiq/internal/adapters/repository"
	service "github.com/okian/swingiq/internal/app"
	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
	"github.com/okian/swingiq/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Players(ctx context.Context, groupID string) ([]model.Player, error)
	Player(ctx context.Context, id string) (model.Player, error)
	Sessions(ctx context.Context, playerID string) ([]model.Session, error)
	Groups(ctx context.Context) ([]model.Group, error)
	Group(ctx context.Context, id string) (model.Group, error)
	Listings(ctx context.Context, category string) ([]model.Listing, error)

	Plan(ctx context.Context, playerID string) (types.PlanView, error)
	Reanalyze(ctx context.Context, playerID string) (types.PlanView, error)
	RequestReanalysis(ctx context.Context, playerID string) (types.AnalysisAck, error)
	AddNote(ctx context.Context, playerID string, in types.NoteInput) (types.NoteAck, error)
	Preview(ctx context.Context, m plan.Metrics) types.PlanView
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	catalogHandler   *CatalogHandler
	planHandler      *PlanHandler
	dashboardHandler *dashboardHandler
	logger           logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		catalogHandler:   NewCatalogHandler(deps),
		planHandler:      NewPlanHandler(deps),
		dashboardHandler: newDashboardHandler(),
		logger:           logger.Get().Named("http"),
	}
}

// Router builds a chi router carrying every API route plus the request
// id, logging and panic recovery middleware.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	s.Register(ctx, r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/dashboard", s.dashboardHandler.HandleDashboard)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players", MetricsMiddleware(s.catalogHandler.HandleListPlayers, "players"))
		r.Get("/players/{id}", MetricsMiddleware(s.catalogHandler.HandleGetPlayer, "player"))
		r.Get("/players/{id}/sessions", MetricsMiddleware(s.catalogHandler.HandleListSessions, "sessions"))
		r.Get("/players/{id}/plan", MetricsMiddleware(s.planHandler.HandleGetPlan, "plan"))
		r.Post("/players/{id}/plan/reanalyze", MetricsMiddleware(s.planHandler.HandleReanalyze, "reanalyze"))
		r.Post("/players/{id}/notes", MetricsMiddleware(s.planHandler.HandleAddNote, "notes"))
		r.Get("/groups", MetricsMiddleware(s.catalogHandler.HandleListGroups, "groups"))
		r.Get("/groups/{id}", MetricsMiddleware(s.catalogHandler.HandleGetGroup, "group"))
		r.Get("/listings", MetricsMiddleware(s.catalogHandler.HandleListListings, "listings"))
		r.Post("/plans/preview", MetricsMiddleware(s.planHandler.HandlePreview, "preview"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response, so an unencodable
// value becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal", Message: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and repository errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidNote), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
