package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

type targetRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) ListProjects(c echo.Context) error {
	projects, err := h.svc.ListProjects(c.Request().Context(), identity(c))
	if err != nil {
		return h.respondError(c, "ListProjects", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"projects": projects}))
}

func (h *Handler) ListMyProjects(c echo.Context) error {
	projects, err := h.svc.ListMyProjects(c.Request().Context(), identity(c))
	if err != nil {
		return h.respondError(c, "ListMyProjects", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"projects": projects}))
}

// CreateProject создает проект; создатель становится управляющим
func (h *Handler) CreateProject(c echo.Context) error {
	h.logger.Info("CreateProject: начало обработки запроса")

	var req service.ProjectInput
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "CreateProject", err)
	}

	project, err := h.svc.CreateProject(c.Request().Context(), identity(c), req)
	if err != nil {
		return h.respondError(c, "CreateProject", err)
	}

	h.logger.Info("CreateProject: проект создан", zap.String("project_id", project.ID), zap.String("model", project.Model))
	return c.JSON(http.StatusCreated, ok(map[string]any{"project": project}))
}

func (h *Handler) GetProject(c echo.Context) error {
	project, err := h.svc.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, "GetProject", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"project": project}))
}

// UpdateProject меняет настройки проекта
func (h *Handler) UpdateProject(c echo.Context) error {
	var req models.ProjectUpdate
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "UpdateProject", err)
	}

	project, err := h.svc.UpdateProject(c.Request().Context(), identity(c), c.Param("id"), req)
	if err != nil {
		return h.respondError(c, "UpdateProject", err)
	}

	h.logger.Info("UpdateProject: проект обновлен", zap.String("project_id", project.ID))
	return c.JSON(http.StatusOK, ok(map[string]any{"project": project}))
}

// DeleteProject удаляет проект со всеми данными
func (h *Handler) DeleteProject(c echo.Context) error {
	projectID := c.Param("id")
	if err := h.svc.DeleteProject(c.Request().Context(), identity(c), projectID); err != nil {
		return h.respondError(c, "DeleteProject", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// MyMembership возвращает роль текущего пользователя в проекте
func (h *Handler) MyMembership(c echo.Context) error {
	role, err := h.svc.MyMembership(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return h.respondError(c, "MyMembership", err)
	}

	var membership any
	if role != "" {
		membership = map[string]any{"role": role}
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"membership": membership}))
}

func (h *Handler) Participants(c echo.Context) error {
	participants, err := h.svc.Participants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, "Participants", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"participants": participants}))
}

// Kick исключает участника проекта
func (h *Handler) Kick(c echo.Context) error {
	var req targetRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "Kick", err)
	}

	projectID := c.Param("id")
	h.logger.Info("Kick: исключение участника", zap.String("project_id", projectID), zap.String("user_id", req.UserID))

	if err := h.svc.Kick(c.Request().Context(), identity(c), projectID, req.UserID); err != nil {
		return h.respondError(c, "Kick", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

func (h *Handler) Promote(c echo.Context) error {
	var req targetRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "Promote", err)
	}
	if err := h.svc.Promote(c.Request().Context(), identity(c), c.Param("id"), req.UserID); err != nil {
		return h.respondError(c, "Promote", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

func (h *Handler) Demote(c echo.Context) error {
	var req targetRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "Demote", err)
	}
	if err := h.svc.Demote(c.Request().Context(), identity(c), c.Param("id"), req.UserID); err != nil {
		return h.respondError(c, "Demote", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// Join добавляет пользователя в проект без заявки
func (h *Handler) Join(c echo.Context) error {
	joined, err := h.svc.Join(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return h.respondError(c, "Join", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"already_member": !joined}))
}

func (h *Handler) Leave(c echo.Context) error {
	if err := h.svc.Leave(c.Request().Context(), identity(c), c.Param("id")); err != nil {
		return h.respondError(c, "Leave", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}
