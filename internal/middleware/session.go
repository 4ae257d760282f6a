package middleware

import (
	"food-storefront/internal/model"
	"food-storefront/internal/service"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "storefront_session"
	SessionHeaderName = "X-Session-Key"

	sessionContextKey = "client_session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// ClientSession resolves the anonymous shopper behind the request. The key is
// read from the session cookie or the X-Session-Key header and is echoed back
// in both.
func ClientSession(sessions service.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			key := req.Header.Get(SessionHeaderName)
			if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				key = cookie.Value
			}

			session, err := sessions.Resolve(req.Context(), key, req.UserAgent(), c.RealIP())
			if err != nil {
				return err
			}

			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    session.SessionKey,
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Response().Header().Set(SessionHeaderName, session.SessionKey)

			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}

func SessionFromContext(c echo.Context) *model.ClientSession {
	session, _ := c.Get(sessionContextKey).(*model.ClientSession)
	return session
}
