// Package http exposes the admin dashboard over JSON. Every data route runs
// behind the session gate; the upstream shop API stays the source of truth
// and re-authorizes each forwarded call.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopadmin/internal/config"
	"shopadmin/internal/ledger"
	"shopadmin/internal/session"
	"shopadmin/internal/shopapi"
	"shopadmin/internal/views"
)

type Server struct {
	cfg      config.Config
	api      *shopapi.Client
	sessions session.Store

	mu        sync.Mutex
	searchers map[string]*ledger.UserSearcher
}

func NewServer(cfg config.Config, api *shopapi.Client, sessions session.Store) *Server {
	return &Server{
		cfg:       cfg,
		api:       api,
		sessions:  sessions,
		searchers: make(map[string]*ledger.UserSearcher),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/logout", s.handleLogout)
		r.Get("/stats", s.handleStats)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Put("/categories/{id}", s.handleUpdateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)

		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleSaveProduct)
		r.Put("/products/{id}", s.handleSaveProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)

		r.Get("/users", s.handleListUsers)
		r.Get("/users/search", s.handleSearchUsers)
		r.Post("/users", s.handleCreateUser)
		r.Put("/users/{id}", s.handleUpdateUser)
		r.Delete("/users/{id}", s.handleDeleteUser)

		r.Get("/debts", s.handleListDebts)
		r.Post("/debts", s.handleCreateDebt)
		r.Post("/debts/{id}/paid", s.handleMarkDebtPaid)
		r.Get("/debts/report.xlsx", s.handleDebtReport)

		r.Get("/orders", s.handleListOrders)
		r.Put("/orders/{id}/status", s.handleUpdateOrderStatus)
	})

	return r
}

type sessionCtxKey struct{}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := bearerToken(r.Header.Get("Authorization"))
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing_session")
			return
		}
		sess, err := s.sessions.Get(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_session")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*session.Session)
	return sess
}

// client binds the shop client to the request's session token.
func (s *Server) client(r *http.Request) *shopapi.Client {
	return s.api.WithToken(sessionFromContext(r.Context()).Token)
}

// searcher returns the session's debounced user search, creating it on
// first use. One searcher per session keeps the last-issued-wins ordering
// scoped to one admin's keystrokes.
func (s *Server) searcher(sess *session.Session) *ledger.UserSearcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sr, ok := s.searchers[sess.ID]; ok {
		return sr
	}
	sr := ledger.NewUserSearcher(s.api.WithToken(sess.Token), s.cfg.SearchDebounce, nil)
	s.searchers[sess.ID] = sr
	return sr
}

func (s *Server) dropSearcher(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sr, ok := s.searchers[id]; ok {
		sr.Cancel()
		delete(s.searchers, id)
	}
}

// destroySession discards the session after the upstream rejected its
// token; the admin has to log in again.
func (s *Server) destroySession(r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		return
	}
	_ = s.sessions.Delete(r.Context(), sess.ID)
	s.dropSearcher(sess.ID)
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var statusErr *shopapi.StatusError
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, views.ErrValidation):
		writeError(w, http.StatusBadRequest, "missing_fields")
	case errors.Is(err, ledger.ErrDebtNotFound):
		writeError(w, http.StatusNotFound, "debt_not_found")
	case errors.Is(err, ledger.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "debt_already_paid")
	case errors.Is(err, shopapi.ErrUploadFailed):
		writeError(w, http.StatusBadGateway, "upload_failed")
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusUnauthorized {
			s.destroySession(r)
			writeError(w, http.StatusUnauthorized, "session_expired")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_error")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
