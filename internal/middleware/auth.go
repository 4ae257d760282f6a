package middleware

import (
	"food-storefront/internal/service"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const staffContextKey = "staff"

// StaffAuth accepts the token from "Authorization: Bearer" or, for websocket
// upgrades that cannot set headers, the "token" query parameter.
func StaffAuth(auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				raw = c.QueryParam("token")
			}
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing staff token")
			}

			username, err := auth.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(staffContextKey, username)
			return next(c)
		}
	}
}

func StaffFromContext(c echo.Context) string {
	username, _ := c.Get(staffContextKey).(string)
	return username
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
