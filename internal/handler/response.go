package handler

import "github.com/labstack/echo/v4"

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// ErrorResponse writes the standard error envelope.
func ErrorResponse(c echo.Context, code int, message, errCode, details string) error {
	errBody := map[string]string{
		"code": errCode,
	}
	if details != "" {
		errBody["details"] = details
	}
	return c.JSON(code, map[string]interface{}{
		"success": false,
		"message": message,
		"error":   errBody,
	})
}
