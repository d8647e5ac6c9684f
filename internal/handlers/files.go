package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadProjectFiles создает тематическую группу файлов: projectId, topic, files
func (h *Handler) UploadProjectFiles(c echo.Context) error {
	h.logger.Info("UploadProjectFiles: начало обработки запроса")

	uploads, closeUploads, err := readUploads(c)
	if err != nil {
		return h.uploadError(c, "UploadProjectFiles", err)
	}
	defer closeUploads()

	projectID := c.FormValue("projectId")
	group, err := h.svc.UploadProjectFiles(c.Request().Context(), identity(c), projectID, c.FormValue("topic"), uploads)
	if err != nil {
		return h.respondError(c, "UploadProjectFiles", err)
	}

	h.logger.Info("UploadProjectFiles: файлы загружены",
		zap.String("project_id", projectID),
		zap.String("group_id", group.ID),
		zap.Int("files", len(group.Files)),
	)
	return c.JSON(http.StatusCreated, ok(map[string]any{"group": group}))
}

// AllFiles возвращает все группы файлов проекта
func (h *Handler) AllFiles(c echo.Context) error {
	groups, err := h.svc.AllFiles(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return h.respondError(c, "AllFiles", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"groups": groups}))
}

func (h *Handler) DeleteProjectFile(c echo.Context) error {
	groupDeleted, err := h.svc.DeleteProjectFile(c.Request().Context(), identity(c), c.Param("fileId"))
	if err != nil {
		return h.respondError(c, "DeleteProjectFile", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"group_deleted": groupDeleted}))
}

func (h *Handler) DownloadProjectFile(c echo.Context) error {
	d, err := h.svc.OpenProjectFile(c.Request().Context(), identity(c), c.Param("fileId"))
	if err != nil {
		return h.respondError(c, "DownloadProjectFile", err)
	}
	return h.sendFile(c, d)
}
