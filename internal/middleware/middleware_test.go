package middleware

import (
	"context"
	"food-storefront/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	gotKey string
}

func (s *stubSessions) Resolve(_ context.Context, key, _, _ string) (*model.ClientSession, error) {
	s.gotKey = key
	if key == "" {
		key = "fresh-key"
	}
	return &model.ClientSession{ID: 3, SessionKey: key}, nil
}


func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer "))
}

func TestClientSessionPrefersCookie(t *testing.T) {
	e := echo.New()
	sessions := &stubSessions{}

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeaderName, "header-key")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-key"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *model.ClientSession
	err := ClientSession(sessions)(func(c echo.Context) error {
		seen = SessionFromContext(c)
		return nil
	})(c)
	require.NoError(t, err)

	assert.Equal(t, "cookie-key", sessions.gotKey)
	require.NotNil(t, seen)
	assert.Equal(t, uint(3), seen.ID)
	assert.Equal(t, "cookie-key", rec.Header().Get(SessionHeaderName))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=cookie-key")
}

func TestClientSessionIssuesKey(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := ClientSession(&stubSessions{})(func(c echo.Context) error { return nil })(c)
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", rec.Header().Get(SessionHeaderName))
}
