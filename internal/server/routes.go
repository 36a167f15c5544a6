package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health) // Health check endpoint

	// Read-only price discovery (exposed Pricing Engine, no trade triggered)
	v1.GET("/quote/out", h.QuoteOut)
	v1.GET("/quote/in", h.QuoteIn)
	v1.GET("/quote/liquidity", h.QuoteLiquidity)

	// Pair registry with live reserves
	v1.GET("/pairs", h.PairsList)
	v1.GET("/pairs/:id", h.PairGet)
	v1.GET("/prices/:pair", h.Price) // Last executed price

	// Trade history
	v1.GET("/trades/recent", h.RecentTrades)

	// The only state-mutating entry point, rate limited per client IP
	swapGroup := v1.Group("/swap")
	swapGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(2),   // 2 swaps per second sustained
		Burst:     5,               // Allow burst of 5 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	swapGroup.POST("", h.Swap)

	// Trading-halt switches (ops surface)
	haltGroup := v1.Group("/halts")
	haltGroup.GET("", h.HaltsList)            // List all halts
	haltGroup.POST("", h.HaltsUpsert)         // Create new halt
	haltGroup.GET("/:pair", h.HaltsGet)       // Get specific halt
	haltGroup.PUT("/:pair", h.HaltsUpdate)    // Update existing halt
	haltGroup.DELETE("/:pair", h.HaltsDelete) // Delete halt

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
