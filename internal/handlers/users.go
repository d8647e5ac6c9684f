package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

// Register регистрирует пользователя и сразу открывает сессию
func (h *Handler) Register(c echo.Context) error {
	h.logger.Info("Register: начало обработки запроса")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "Register", err)
	}

	user, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, "Register", err)
	}
	if err := h.login(c, user); err != nil {
		return h.respondError(c, "Register", err)
	}

	h.logger.Info("Register: пользователь зарегистрирован", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return c.JSON(http.StatusCreated, ok(map[string]any{"user": user}))
}

// Login проверяет пароль и открывает сессию
func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "Login", err)
	}

	h.logger.Info("Login: попытка входа", zap.String("username", req.Username))

	user, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.respondError(c, "Login", err)
	}
	if err := h.login(c, user); err != nil {
		return h.respondError(c, "Login", err)
	}

	h.logger.Info("Login: вход выполнен", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, ok(map[string]any{"user": user}))
}

func (h *Handler) login(c echo.Context, user *models.User) error {
	return h.sessions.Login(c.Request().Context(), auth.Identity{UserID: user.ID, Username: user.Username})
}

// Logout закрывает сессию
func (h *Handler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context()); err != nil {
		return h.respondError(c, "Logout", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// Me возвращает текущего пользователя или null
func (h *Handler) Me(c echo.Context) error {
	user, err := h.svc.Me(c.Request().Context(), identity(c))
	if err != nil {
		return h.respondError(c, "Me", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"user": user}))
}

// GetUser возвращает публичный профиль
func (h *Handler) GetUser(c echo.Context) error {
	userID := c.Param("id")
	h.logger.Info("GetUser: получение пользователя", zap.String("user_id", userID))

	user, err := h.svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return h.respondError(c, "GetUser", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"user": user}))
}

// UpdateProfile меняет профиль текущего пользователя
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "UpdateProfile", err)
	}

	user, err := h.svc.UpdateProfile(c.Request().Context(), identity(c), req)
	if err != nil {
		return h.respondError(c, "UpdateProfile", err)
	}

	h.logger.Info("UpdateProfile: профиль обновлен", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, ok(map[string]any{"user": user}))
}
