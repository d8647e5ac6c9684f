package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type stageRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListStages(c echo.Context) error {
	stages, err := h.svc.ListStages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, "ListStages", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"stages": stages}))
}

// AddStage добавляет этап в конец последовательности
func (h *Handler) AddStage(c echo.Context) error {
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "AddStage", err)
	}

	stage, err := h.svc.AddStage(c.Request().Context(), identity(c), c.Param("id"), req.Name)
	if err != nil {
		return h.respondError(c, "AddStage", err)
	}

	h.logger.Info("AddStage: этап добавлен", zap.String("stage_id", stage.ID), zap.Int("position", stage.Position))
	return c.JSON(http.StatusCreated, ok(map[string]any{"stage": stage}))
}

func (h *Handler) RenameStage(c echo.Context) error {
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "RenameStage", err)
	}
	if err := h.svc.RenameStage(c.Request().Context(), identity(c), c.Param("id"), c.Param("stageId"), req.Name); err != nil {
		return h.respondError(c, "RenameStage", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// DeleteStage удаляет этап; в ответе текущий выбранный этап
func (h *Handler) DeleteStage(c echo.Context) error {
	selected, err := h.svc.DeleteStage(c.Request().Context(), identity(c), c.Param("id"), c.Param("stageId"))
	if err != nil {
		return h.respondError(c, "DeleteStage", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"selected_stage_id": selected}))
}

// SelectStage делает этап текущим
func (h *Handler) SelectStage(c echo.Context) error {
	var req struct {
		StageID string `json:"stage_id"`
	}
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "SelectStage", err)
	}

	selection, err := h.svc.SelectStage(c.Request().Context(), identity(c), c.Param("id"), req.StageID)
	if err != nil {
		return h.respondError(c, "SelectStage", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"selection": selection}))
}
