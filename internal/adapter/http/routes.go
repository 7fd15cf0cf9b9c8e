package http

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the award API routes under /api/v1, plus an
// unversioned health check.
func RegisterRoutes(e *echo.Echo, h *AwardHandler) {
	RegisterRoutesWithMiddleware(e, h)
}

// RegisterRoutesWithMiddleware registers routes, applying middleware to
// the versioned API group only.
func RegisterRoutesWithMiddleware(e *echo.Echo, h *AwardHandler, middleware ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	api := e.Group("/api/v1", middleware...)
	api.GET("/engines", h.ListEngines)
	api.GET("/awards", h.ListAwards)

	requests := api.Group("/requests")
	requests.GET("", h.ListRequests)
	requests.GET("/:id", h.GetRequest)
}
