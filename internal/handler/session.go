package handler

import (
	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	manager *service.Manager
}

func NewSessionHandler(manager *service.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// POST /api/disconnect
// Idempotently tears the session down and restarts it; the re-initialization
// continues after the response.
func (h *SessionHandler) Disconnect(c echo.Context) error {
	if err := h.manager.Restart(false); err != nil {
		return ErrorResponse(c, 500, "Failed to restart session", "RESTART_FAILED", err.Error())
	}
	return SuccessResponse(c, 200, "Session restart initiated", h.manager.Status())
}

// POST /api/clear-session
// Additionally discards the persisted credentials, so the next cycle requires
// a fresh QR scan.
func (h *SessionHandler) ClearSession(c echo.Context) error {
	if err := h.manager.Restart(true); err != nil {
		return ErrorResponse(c, 500, "Failed to clear session", "CLEAR_SESSION_FAILED", err.Error())
	}
	return SuccessResponse(c, 200, "Session cleared, restart initiated", h.manager.Status())
}
