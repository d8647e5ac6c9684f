package handlers

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

const uploadField = "files"

// readUploads открывает файлы из поля files. Запрос без multipart дает пустой список.
func readUploads(c echo.Context) ([]models.Upload, func(), error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var uploads []models.Upload
	var closers []func() error
	closeAll := func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}
	for _, fh := range form.File[uploadField] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, f.Close)
		uploads = append(uploads, models.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// uploadError отвечает на ошибку разбора multipart; превышение лимита отдается как 413
func (h *Handler) uploadError(c echo.Context, op string, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		h.logger.Warn(op+": тело запроса отклонено", zap.Int("status", he.Code))
		return he
	}
	return h.badRequest(c, op, err)
}

// sendFile отдает файл как вложение с исходным именем
func (h *Handler) sendFile(c echo.Context, d *service.Download) error {
	defer d.Content.Close()

	var modTime time.Time
	if info, err := d.Content.Stat(); err == nil {
		modTime = info.ModTime()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	http.ServeContent(c.Response(), c.Request(), d.Filename, modTime, d.Content)
	return nil
}
