// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/promotion"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
)

// HealthChecker is a dependency that can report its own health
type HealthChecker interface {
	Health() error
}

// BreakerReporter exposes the upstream circuit breaker state
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// Dependencies are the wired services the server exposes
type Dependencies struct {
	Registry   *cart.Registry
	Products   *product.Service
	Checkout   *checkout.Service
	Verifier   *payment.Verifier
	Orders     *order.Service
	Promotions *promotion.Service
	Warranties *warranty.Service

	// RedisClient backs rate limiting; nil disables it
	RedisClient *redis.Client
	// HealthChecks are reported by /health, keyed by name
	HealthChecks map[string]HealthChecker
	Backend      BreakerReporter
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	deps       Dependencies
	gin        *gin.Engine
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, logger *logrus.Logger, deps Dependencies) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		deps:      deps,
		startedAt: time.Now(),
	}
}

// Handler builds the gin engine on first use
func (s *Server) Handler() http.Handler {
	if s.gin != nil {
		return s.gin
	}

	// Set Gin mode based on environment
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.gin = gin.New()
	if err := s.gin.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
		s.logger.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s.gin
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	log.Printf("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	log.Printf("🌐 API Base URL: http://localhost:%s/api/v1", s.config.Server.Port)
	log.Printf("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Println("🛑 Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Println("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware - recover from panics
	s.gin.Use(gin.Recovery())

	// Request ID first so the access log can carry it
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))

	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders(s.config.App.Name, routes.CartEventsPath))
	s.gin.Use(middleware.RateLimit(s.config, s.deps.RedisClient))
	s.gin.Use(middleware.RequestSizeLimit(1 << 20))

	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout, routes.CartEventsPath))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	sessions := handlers.NewSessions(s.deps.Registry, s.config)

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, routes.Handlers{
		Cart:      handlers.NewCartHandler(sessions, s.deps.Products),
		Checkout:  handlers.NewCheckoutHandler(sessions, s.deps.Checkout, s.deps.Verifier),
		Product:   handlers.NewProductHandler(s.deps.Products),
		Order:     handlers.NewOrderHandler(s.deps.Orders),
		Promotion: handlers.NewPromotionHandler(s.deps.Promotions),
		Warranty:  handlers.NewWarrantyHandler(s.deps.Warranties),
	}, s.config)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"products": "/api/v1/products",
					"cart":     "/api/v1/cart",
					"checkout": "/api/v1/checkout",
					"orders":   "/api/v1/orders",
					"admin":    "/api/v1/admin",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	for name, checker := range s.deps.HealthChecks {
		if err := checker.Health(); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  name + " ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports not ready while the upstream breaker is open
func (s *Server) readinessCheck(c *gin.Context) {
	breaker := "unknown"
	status := http.StatusOK
	ready := "ready"
	if s.deps.Backend != nil {
		state := s.deps.Backend.BreakerState()
		breaker = state.String()
		if state == gobreaker.StateOpen {
			status = http.StatusServiceUnavailable
			ready = "degraded"
		}
	}

	c.JSON(status, gin.H{
		"status":          ready,
		"timestamp":       time.Now().UTC(),
		"uptime":          time.Since(s.startedAt).Round(time.Second).String(),
		"backend_breaker": breaker,
	})
}
