package middleware

import (
	"net/http"
	"strings"

	"gowa-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

// JWTAuthMiddleware validates the operator token and puts the claims on the
// request context.
func JWTAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Unauthorized",
					"error": map[string]string{
						"code": "UNAUTHORIZED",
					},
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Invalid authorization header format",
					"error": map[string]string{
						"code": "INVALID_AUTH_HEADER",
					},
				})
			}

			claims, err := service.ValidateAccessToken(parts[1])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Invalid or expired token",
					"error": map[string]string{
						"code": "INVALID_TOKEN",
					},
				})
			}

			c.Set("user_claims", claims)
			c.Set("username", claims.Username)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}
