// Package server assembles the dashboard HTTP surface.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/babycare/internal/auth"
	"github.com/dukerupert/babycare/internal/care"
	"github.com/dukerupert/babycare/internal/handler"
	"github.com/dukerupert/babycare/internal/invite"
	"github.com/dukerupert/babycare/internal/middleware"
	ws "github.com/dukerupert/babycare/internal/websocket"
)

const (
	requestsPerMinute = 60
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	hub         *ws.Hub
	dashboardH  *handler.DashboardHandler
	tokens      *invite.Signer
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(svc *care.Service, hub *ws.Hub, tokens *invite.Signer, logger *slog.Logger) *Server {
	return &Server{
		hub:         hub,
		dashboardH:  handler.NewDashboardHandler(svc, logger.With("component", "dashboard")),
		tokens:      tokens,
		rateLimiter: middleware.NewRateLimiter(requestsPerMinute, time.Minute),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// HTTPServer returns an http.Server serving Router on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else needs a dashboard token.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	protected := middleware.RequireDashboard(s.tokens)(protectedMux)
	outerMux.Handle("/", middleware.RateLimit(s.rateLimiter)(protected))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/family", s.dashboardH.Family)
	mux.HandleFunc("GET /api/activity", s.dashboardH.Activity)
	mux.HandleFunc("GET /api/stats", s.dashboardH.Stats)

	// Live updates for the token's family
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, familyFromContext, s.logger.With("component", "websocket")))
}

func familyFromContext(r *http.Request) (int64, error) {
	id := auth.FamilyID(r.Context())
	if id == 0 {
		return 0, errors.New("no authorised family")
	}
	return id, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
