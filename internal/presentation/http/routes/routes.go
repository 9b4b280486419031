package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/registerd/internal/config"
	"github.com/sangkips/registerd/internal/presentation/http/handler"
	"github.com/sangkips/registerd/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session *handler.SessionHandler
	Lookup  *handler.LookupHandler
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Per-register rate limiter
		rateLimiter := middleware.NewRegisterRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.Duration),
			BurstSize:         cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		v1.Use(rateLimiter.Middleware())

		registerLookupRoutes(v1, h)
		registerSessionRoutes(v1, h)
	}

	return router
}

func registerLookupRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.GET("/items/lookup", h.Lookup.LookupItems)
	v1.GET("/customers/:id/credit", h.Lookup.CustomerCredit)
	v1.GET("/settings/financial", h.Lookup.FinancialSettings)
}

func registerSessionRoutes(v1 *gin.RouterGroup, h *Handlers) {
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", h.Session.Open)
		sessions.GET("", h.Session.List)
		sessions.GET("/:id", h.Session.Get)
		sessions.DELETE("/:id", h.Session.Close)

		sessions.PUT("/:id/lines/:lineId", h.Session.UpsertLine)
		sessions.DELETE("/:id/lines/:lineId", h.Session.RemoveLine)
		sessions.PUT("/:id/discount", h.Session.SetDiscount)
		sessions.PUT("/:id/customer", h.Session.SetCustomer)

		sessions.POST("/:id/checkout", h.Session.Checkout)
		sessions.POST("/:id/approve", h.Session.Approve)
		sessions.POST("/:id/cancel", h.Session.Cancel)
		sessions.POST("/:id/edit", h.Session.Edit)
	}
}
