package handler

import (
	"time"

	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type StatusHandler struct {
	manager *service.Manager
}

func NewStatusHandler(manager *service.Manager) *StatusHandler {
	return &StatusHandler{manager: manager}
}

// GET /api/status
func (h *StatusHandler) GetStatus(c echo.Context) error {
	status := h.manager.Status()
	return c.JSON(200, map[string]interface{}{
		"connected":     status.Connected,
		"authenticated": status.Authenticated,
		"hasQR":         status.HasQR,
		"qr":            nullable(status.QR),
	})
}

// GET /api/diagnostics
// Always returns the known flags; a failing transport query is surfaced
// explicitly instead of erroring the whole response.
func (h *StatusHandler) GetDiagnostics(c echo.Context) error {
	status := h.manager.Status()

	resp := map[string]interface{}{
		"connected":     status.Connected,
		"authenticated": status.Authenticated,
		"hasQR":         status.HasQR,
		"qr":            nullable(status.QR),
	}

	state, err := h.manager.QueryClientState(c.Request().Context())
	if err != nil {
		resp["clientState"] = nil
		resp["clientStateError"] = err.Error()
	} else {
		resp["clientState"] = state
	}

	return c.JSON(200, resp)
}

// GET / - liveness probe
func Health(c echo.Context) error {
	return c.JSON(200, map[string]interface{}{
		"success":   true,
		"message":   "WhatsApp bridge is running",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
