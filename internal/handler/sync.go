package handler

import (
	"errors"

	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type SyncHandler struct {
	syncer *service.RosterSync
}

func NewSyncHandler(syncer *service.RosterSync) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// POST /api/sync-contacts
func (h *SyncHandler) Trigger(c echo.Context) error {
	err := h.syncer.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, service.ErrNotReady) {
			return ErrorResponse(c, 400, "WhatsApp session is not ready", "NOT_READY", "Wait for the session to connect or scan the QR code")
		}
		return ErrorResponse(c, 500, "Contact sync failed", "SYNC_FAILED", err.Error())
	}
	return SuccessResponse(c, 200, "Contact sync completed", nil)
}
