package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/talentiq/talentstats/pkg/entities"
	"github.com/talentiq/talentstats/pkg/growthstats"
	"github.com/talentiq/talentstats/pkg/observability"
)

// ServerConfig holds the settings the API server needs from the
// application configuration.
type ServerConfig struct {
	Host string
	Port string
}

// Server is the growth statistics HTTP API.
type Server struct {
	config     ServerConfig
	engine     *growthstats.Engine
	scorer     *growthstats.EngagementScorer
	dir        entities.Directory
	authorizer Authorizer
	logger     *observability.Logger
	metrics    *observability.Metrics

	httpServer *http.Server
}

// NewServer creates the API server. A nil authorizer defaults to the
// domain check.
func NewServer(
	config ServerConfig,
	engine *growthstats.Engine,
	scorer *growthstats.EngagementScorer,
	dir entities.Directory,
	authorizer Authorizer,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	if authorizer == nil {
		authorizer = DomainAuthorizer()
	}
	return &Server{
		config:     config,
		engine:     engine,
		scorer:     scorer,
		dir:        dir,
		authorizer: authorizer,
		logger:     logger,
		metrics:    metrics,
	}
}

// Router builds the HTTP routes with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	apiV1 := r.PathPrefix("/api/v1").Subrouter()

	apiV1.Handle("/{container}/{id:[0-9]+}/growth-stats",
		s.instrument("/api/v1/{container}/{id}/growth-stats",
			http.HandlerFunc(s.handleGrowthStats))).Methods(http.MethodGet)

	apiV1.Handle("/talent_pipelines/{id:[0-9]+}/engagement-score",
		s.instrument("/api/v1/talent_pipelines/{id}/engagement-score",
			http.HandlerFunc(s.handleEngagementScore))).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = loggingMiddleware(handler)
	handler = requestContextMiddleware(s.logger)(handler)
	handler = otelhttp.NewHandler(handler, "talentstats-api")
	return handler
}

// instrument wraps one route with its metrics middleware.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return metricsMiddleware(s.metrics, route)(next)
}

// Start runs the HTTP server until the listener fails or Stop is
// called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	s.logger.Infof("API server listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
