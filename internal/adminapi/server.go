// Package adminapi provides a read-only HTTP introspection surface over
// the resolver daemon: process health, registered backends and their
// selection order, and the recursive-stub backend's nameserver health.
// It exposes no write/mutation endpoints — registry membership and backend
// configuration are process-lifetime decisions made at startup.
package adminapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vectorpbx/dnsresolver/internal/backend/caching"
	"github.com/vectorpbx/dnsresolver/internal/backend/recursive"
	"github.com/vectorpbx/dnsresolver/internal/config"
	"github.com/vectorpbx/dnsresolver/internal/health"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/sipresolve"
)

// Server is the admin introspection HTTP server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to cfg.Admin.Host:Port. recursiveBackend, cache
// and sip may be nil if the deployment doesn't register those components;
// the corresponding endpoints then report 404 instead of serving stale data.
func New(cfg config.AdminAPIConfig, registry *resolve.Registry, reporter *health.Reporter, recursiveBackend *recursive.Backend, cache *caching.Backend, sip *sipresolve.Resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(logger))

	h := newHandler(registry, reporter, recursiveBackend, cache, sip)
	registerRoutes(engine, h)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func registerRoutes(r *gin.Engine, h *Handler) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/registry", h.Registry)
	api.GET("/registry/recursive", h.RecursiveBackend)
	api.GET("/registry/cache", h.CacheStats)
	api.GET("/sip/resolve", h.SIPResolve)
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
