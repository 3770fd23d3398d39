package handler

import (
	"errors"

	"gowa-bridge/internal/model"
	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type BroadcastHandler struct {
	broadcaster *service.Broadcaster
}

func NewBroadcastHandler(broadcaster *service.Broadcaster) *BroadcastHandler {
	return &BroadcastHandler{broadcaster: broadcaster}
}

// POST /api/broadcast
func (h *BroadcastHandler) Send(c echo.Context) error {
	var req model.BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, 400, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	result, err := h.broadcaster.Dispatch(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrNoContacts) {
			return ErrorResponse(c, 400, "Fields 'message' and 'contacts' are required", "VALIDATION_ERROR", err.Error())
		}
		return ErrorResponse(c, 500, "Broadcast failed", "BROADCAST_FAILED", err.Error())
	}

	return SuccessResponse(c, 200, "Broadcast finished", result)
}
