package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.svc.ListTasks(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return h.respondError(c, "ListTasks", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"tasks": tasks}))
}

// CreateTask создает задачу из multipart-формы: title, description, stage_id, files
func (h *Handler) CreateTask(c echo.Context) error {
	h.logger.Info("CreateTask: начало обработки запроса")

	uploads, closeUploads, err := readUploads(c)
	if err != nil {
		return h.uploadError(c, "CreateTask", err)
	}
	defer closeUploads()

	in := service.TaskInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		StageID:     c.FormValue("stage_id"),
	}
	task, err := h.svc.CreateTask(c.Request().Context(), identity(c), c.Param("id"), in, uploads)
	if err != nil {
		return h.respondError(c, "CreateTask", err)
	}

	h.logger.Info("CreateTask: задача создана",
		zap.String("task_id", task.ID),
		zap.Int("files", len(task.Files)),
	)
	return c.JSON(http.StatusCreated, ok(map[string]any{"task": task}))
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if err := h.svc.DeleteTask(c.Request().Context(), identity(c), c.Param("id"), c.Param("taskId")); err != nil {
		return h.respondError(c, "DeleteTask", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// SetTaskStatus меняет статус задачи вручную
func (h *Handler) SetTaskStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "SetTaskStatus", err)
	}

	taskID := c.Param("taskId")
	if err := h.svc.SetTaskStatus(c.Request().Context(), identity(c), c.Param("id"), taskID, req.Status); err != nil {
		return h.respondError(c, "SetTaskStatus", err)
	}

	h.logger.Info("SetTaskStatus: статус изменен", zap.String("task_id", taskID), zap.String("status", req.Status))
	return c.JSON(http.StatusOK, ok(nil))
}

// AddTaskFiles прикрепляет файлы к задаче
func (h *Handler) AddTaskFiles(c echo.Context) error {
	uploads, closeUploads, err := readUploads(c)
	if err != nil {
		return h.uploadError(c, "AddTaskFiles", err)
	}
	defer closeUploads()

	files, err := h.svc.AddTaskFiles(c.Request().Context(), identity(c), c.Param("id"), c.Param("taskId"), uploads)
	if err != nil {
		return h.respondError(c, "AddTaskFiles", err)
	}
	return c.JSON(http.StatusCreated, ok(map[string]any{"files": files}))
}

func (h *Handler) DeleteTaskFile(c echo.Context) error {
	err := h.svc.DeleteTaskFile(c.Request().Context(), identity(c), c.Param("id"), c.Param("taskId"), c.Param("fileId"))
	if err != nil {
		return h.respondError(c, "DeleteTaskFile", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

func (h *Handler) DownloadTaskFile(c echo.Context) error {
	d, err := h.svc.OpenTaskFile(c.Request().Context(), identity(c), c.Param("id"), c.Param("taskId"), c.Param("fileId"))
	if err != nil {
		return h.respondError(c, "DownloadTaskFile", err)
	}
	return h.sendFile(c, d)
}
