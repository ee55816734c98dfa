// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and per-endpoint rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-ai-chat/internal/config"
	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/http/handlers"
	"github.com/tbourn/go-ai-chat/internal/http/middleware"
	"github.com/tbourn/go-ai-chat/internal/repo"
	"github.com/tbourn/go-ai-chat/internal/services"
)

// conversationRepoShim adapts the repository free functions to the
// services.ConversationRepo interface expected by the ConversationService.
// This keeps services decoupled from the concrete repo package while reusing
// existing functions.
type conversationRepoShim struct{}

// CreateConversation proxies repo.CreateConversation.
func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID, topic string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, topic)
}

// ListConversations proxies repo.ListConversations.
func (conversationRepoShim) ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID)
}

// GetConversation proxies repo.GetConversation.
func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

// UpdateConversationTopic proxies repo.UpdateConversationTopic.
func (conversationRepoShim) UpdateConversationTopic(ctx context.Context, db *gorm.DB, id, userID, topic string) error {
	return repo.UpdateConversationTopic(ctx, db, id, userID, topic)
}

// DeleteConversation proxies repo.DeleteConversation.
func (conversationRepoShim) DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteConversation(ctx, db, id, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns a cleanup function that stops the background limiter
// sweepers. Call the cleanup during graceful shutdown.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. CORS and security headers
//  9. Per-route-group: auth gate, then sliding-window rate limiters
func RegisterRoutes(r *gin.Engine, db *gorm.DB, msgSvc *services.MessageService, cfg config.Config) (cleanup func()) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress JSON responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all when none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/completer
	authSvc := services.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	convSvc := services.NewConversationService(db, conversationRepoShim{})
	h := handlers.New(authSvc, convSvc, msgSvc)

	// Sliding-window limiters, one per traffic class
	key := middleware.KeyByUserOrIP()
	win := cfg.RateLimit.Window
	chatRL := middleware.NewSlidingLimiter(cfg.RateLimit.ChatPerMin, win, "chat", key)
	writeRL := middleware.NewSlidingLimiter(cfg.RateLimit.WritePerMin, win, "write", key)
	readRL := middleware.NewSlidingLimiter(cfg.RateLimit.ReadPerMin, win, "read", key)
	mutateRL := middleware.NewSlidingLimiter(cfg.RateLimit.MutatePerMin, win, "mutate", key)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Accounts (no session required)
		api.POST("/auth/register", mutateRL.Handler(), h.Register)
		api.POST("/auth/login", mutateRL.Handler(), h.Login)

		// Everything below requires a valid session token.
		authed := api.Group("", middleware.Auth(cfg.Auth.JWTSecret))

		// Conversations
		authed.GET("/conversations", readRL.Handler(), h.ListConversations)
		authed.POST("/conversations", mutateRL.Handler(), h.CreateConversation)
		authed.PATCH("/conversations/:id", mutateRL.Handler(), h.RenameConversation)
		authed.DELETE("/conversations/:id", mutateRL.Handler(), h.DeleteConversation)

		// Messages
		authed.GET("/messages", readRL.Handler(), h.ListMessages)
		authed.POST("/messages", writeRL.Handler(), h.AppendMessage)

		// Full exchange
		authed.POST("/chat", chatRL.Handler(), h.Chat)
	}

	return func() {
		chatRL.Stop()
		writeRL.Stop()
		readRL.Stop()
		mutateRL.Stop()
	}
}

// corsMiddleware builds the CORS chain: allow-all when no origins are
// configured, otherwise an allowlist that echoes matching Origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		})
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on the first downstream read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
