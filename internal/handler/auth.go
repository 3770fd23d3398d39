package handler

import (
	"errors"

	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /login
func LoginOperator(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, 400, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if req.Username == "" || req.Password == "" {
		return ErrorResponse(c, 400, "Fields 'username' and 'password' are required", "VALIDATION_ERROR", "")
	}

	token, err := service.AuthenticateOperator(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return ErrorResponse(c, 401, "Invalid credentials", "INVALID_CREDENTIALS", "")
		}
		return ErrorResponse(c, 500, "Failed to issue token", "TOKEN_ERROR", err.Error())
	}

	return SuccessResponse(c, 200, "Login successful", map[string]interface{}{
		"access_token": token,
	})
}
