package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Engines int    `json:"engines"`
}

// Health writes a health check response. It is not wrapped in an envelope.
func Health(c echo.Context, engines int) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  "ok",
		Engines: engines,
	})
}

// List is the payload of list endpoints.
type List struct {
	Total int         `json:"total"`
	Items interface{} `json:"items"`
}

// Items writes a 200 OK response with a list payload.
func Items(c echo.Context, total int, items interface{}) error {
	return OK(c, &List{Total: total, Items: items})
}
