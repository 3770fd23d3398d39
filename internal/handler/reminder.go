package handler

import (
	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type ReminderHandler struct {
	reminders *service.Reminders
}

func NewReminderHandler(reminders *service.Reminders) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// POST /api/send-reminders
// Acknowledges as soon as the pending list is known; delivery continues in
// the background.
func (h *ReminderHandler) Trigger(c echo.Context) error {
	pending, err := h.reminders.FetchPending(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, 502, "Failed to fetch pending payments", "BACKEND_UNAVAILABLE", err.Error())
	}

	if len(pending) == 0 {
		return SuccessResponse(c, 200, "No pending payments", map[string]interface{}{
			"scheduled": 0,
		})
	}

	h.reminders.DeliverInBackground(pending)

	return SuccessResponse(c, 202, "Payment reminders scheduled", map[string]interface{}{
		"scheduled": len(pending),
	})
}
