// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Count() int
}

// RadiusReporter reports the shared coin radius.
type RadiusReporter interface {
	Radius() float64
	Resolved() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	sessions SessionCounter
	coin     RadiusReporter
}

// NewHealthHandler creates a new HealthHandler. Both arguments are optional.
func NewHealthHandler(sessions SessionCounter, coin RadiusReporter) *HealthHandler {
	return &HealthHandler{sessions: sessions, coin: coin}
}

// Check returns the health status of the server.
func (h *HealthHandler) Check(c echo.Context) error {
	body := map[string]interface{}{
		"status": "ok",
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Count()
	}
	if h.coin != nil {
		body["coin_radius"] = h.coin.Radius()
		body["coin_measured"] = h.coin.Resolved()
	}
	return c.JSON(http.StatusOK, body)
}
