package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/config"
)

const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
)

// Sessions связывает scs-сессию с идентичностью запроса
type Sessions struct {
	manager *scs.SessionManager
}

// NewSessions создает менеджер сессий поверх переданного хранилища
func NewSessions(store scs.Store, cfg config.SessionConfig) *Sessions {
	m := scs.New()
	if store != nil {
		m.Store = store
	}
	m.Lifetime = cfg.Lifetime
	m.Cookie.Name = cfg.CookieName
	m.Cookie.HttpOnly = true
	m.Cookie.Secure = cfg.Secure
	m.Cookie.SameSite = http.SameSiteLaxMode
	return &Sessions{manager: m}
}

// Middleware загружает и сохраняет сессию и кладет идентичность в контекст запроса
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	load := echo.WrapMiddleware(s.manager.LoadAndSave)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return load(func(c echo.Context) error {
			ctx := c.Request().Context()
			id := Identity{
				UserID:   s.manager.GetString(ctx, sessionUserID),
				Username: s.manager.GetString(ctx, sessionUsername),
			}
			if !id.Anonymous() {
				c.SetRequest(c.Request().WithContext(WithIdentity(ctx, id)))
			}
			return next(c)
		})
	}
}

// Login привязывает сессию к пользователю, обновляя токен
func (s *Sessions) Login(ctx context.Context, id Identity) error {
	if err := s.manager.RenewToken(ctx); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	s.manager.Put(ctx, sessionUserID, id.UserID)
	s.manager.Put(ctx, sessionUsername, id.Username)
	return nil
}

// Logout уничтожает сессию
func (s *Sessions) Logout(ctx context.Context) error {
	if err := s.manager.Destroy(ctx); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
