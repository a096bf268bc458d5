package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/keyquota/pkg/middleware"
	"github.com/platinummonkey/keyquota/pkg/observability"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// QuotaService is the administrative and read surface of quotas.Store
type QuotaService interface {
	SetProjectQuotas(ctx context.Context, projectID string, q quotas.ProjectQuotas) error
	GetProjectQuotas(ctx context.Context, projectID string) (*quotas.ProjectQuotas, error)
	ListProjectQuotas(ctx context.Context, offset, limit int) (*quotas.ProjectQuotasPage, error)
	DeleteProjectQuotas(ctx context.Context, projectID string) error
	GetEffectiveQuotas(ctx context.Context, projectID string) (quotas.EffectiveQuotas, error)
}

// Server represents the quota API server
type Server struct {
	router   *mux.Router
	handlers *QuotaHandlers
}

// Option configures a Server
type Option func(*QuotaHandlers)

// WithLogger sets the fallback logger for handlers
func WithLogger(logger *observability.Logger) Option {
	return func(h *QuotaHandlers) {
		h.logger = logger
	}
}

// WithBaseURL fixes the root used for pagination links instead of
// deriving it from each request
func WithBaseURL(base string) Option {
	return func(h *QuotaHandlers) {
		h.baseURL = base
	}
}

// NewServer creates a new API server
func NewServer(store QuotaService, enforcer middleware.Reserver, projects middleware.ProjectResolver, opts ...Option) *Server {
	h := NewQuotaHandlers(store, enforcer, projects)
	for _, opt := range opts {
		opt(h)
	}

	s := &Server{
		router:   mux.NewRouter(),
		handlers: h,
	}
	s.router.Use(middleware.RequestID(h.logger), middleware.Recovery(h.logger))
	h.RegisterRoutes(s.router)
	s.router.NotFoundHandler = http.HandlerFunc(notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	return s
}

// Router exposes the router so callers can add middleware or routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
