package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/untibullet/project-hub/internal/config"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestIdentityContext(t *testing.T) {
	assert.True(t, FromContext(context.Background()).Anonymous())

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Username: "alice"})
	id := FromContext(ctx)
	assert.False(t, id.Anonymous())
	assert.Equal(t, "alice", id.Username)
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessions(nil, config.SessionConfig{Lifetime: time.Hour, CookieName: "sid"})

	e := echo.New()
	e.Use(sessions.Middleware())
	e.POST("/login", func(c echo.Context) error {
		if err := sessions.Login(c.Request().Context(), Identity{UserID: "u1", Username: "alice"}); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, FromContext(c.Request().Context()).Username)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := sessions.Logout(c.Request().Context()); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "sid", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "alice", rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Body.String())
}
