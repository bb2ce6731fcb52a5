// Package http exposes the JSON API. Every payload travels in a
// {success, message, data} envelope; authentication is a bearer token.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenseintel/internal/auth"
	"expenseintel/internal/core"
	"expenseintel/internal/services"
	"expenseintel/internal/storage"
)

const readinessTimeout = 2 * time.Second

type Server struct {
	http.Server

	store       storage.Store
	tokens      *auth.TokenManager
	authSvc     *services.AuthService
	expenseSvc  *services.ExpenseService
	potSvc      *services.PotService
	categorySvc *services.CategoryService
	aiSvc       *services.AIService

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

type Services struct {
	Auth       *services.AuthService
	Expenses   *services.ExpenseService
	Pots       *services.PotService
	Categories *services.CategoryService
	AI         *services.AIService
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store storage.Store, tokens *auth.TokenManager, svcs Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		tokens:      tokens,
		authSvc:     svcs.Auth,
		expenseSvc:  svcs.Expenses,
		potSvc:      svcs.Pots,
		categorySvc: svcs.Categories,
		aiSvc:       svcs.AI,
		rateLimiter: newRateLimiter(),
	}

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return withSecurityHeaders(s.withRateLimit(withRequestLog(h)))
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return public(s.withAuth(h))
	}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/v1/auth/register", public(s.handleRegister))
	mux.HandleFunc("POST /api/v1/auth/login", public(s.handleLogin))
	mux.HandleFunc("POST /api/v1/auth/refresh", public(s.handleRefresh))
	mux.HandleFunc("POST /api/v1/auth/logout", public(s.handleLogout))
	mux.HandleFunc("POST /api/v1/auth/forgot-password", public(s.handleForgotPassword))
	mux.HandleFunc("POST /api/v1/auth/reset-password", public(s.handleResetPassword))
	mux.HandleFunc("POST /api/v1/auth/change-password", protected(s.handleChangePassword))
	mux.HandleFunc("GET /api/v1/auth/me", protected(s.handleMe))
	mux.HandleFunc("PATCH /api/v1/auth/me", protected(s.handleUpdateMe))

	mux.HandleFunc("POST /api/v1/marketing/contact", public(s.handleContact))
	mux.HandleFunc("POST /api/v1/marketing/newsletter", public(s.handleNewsletter))

	mux.HandleFunc("POST /api/v1/expenses", protected(s.handleCreateExpense))
	mux.HandleFunc("GET /api/v1/expenses", protected(s.handleListExpenses))
	mux.HandleFunc("GET /api/v1/expenses/summary", protected(s.handleExpenseSummary))
	mux.HandleFunc("GET /api/v1/expenses/{id}", protected(s.handleGetExpense))
	mux.HandleFunc("PATCH /api/v1/expenses/{id}", protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", protected(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/v1/pots", protected(s.handleCreatePot))
	mux.HandleFunc("GET /api/v1/pots", protected(s.handleListPots))
	mux.HandleFunc("GET /api/v1/pots/{id}", protected(s.handleGetPot))
	mux.HandleFunc("PATCH /api/v1/pots/{id}", protected(s.handleUpdatePot))
	mux.HandleFunc("DELETE /api/v1/pots/{id}", protected(s.handleDeletePot))

	mux.HandleFunc("POST /api/v1/categories", protected(s.handleCreateCategory))
	mux.HandleFunc("GET /api/v1/categories", protected(s.handleListCategories))
	mux.HandleFunc("PATCH /api/v1/categories/{id}", protected(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{id}", protected(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/v1/ai/analyze", protected(s.handleAnalyze))

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "ok", nil)
}

// handleReadyz reports whether the storage backend answers. A trivial read
// against the user repository doubles as a liveness probe for the backend.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.probeStore(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, "storage unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, "ready", nil)
}

// probeStore issues a lookup that is expected to miss; only a storage-engine
// failure marks the backend unready.
func (s *Server) probeStore(ctx context.Context) error {
	_, err := s.store.Users().Get(ctx, uuid.Nil)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
