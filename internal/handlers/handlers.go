package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/repository"
	"github.com/untibullet/project-hub/internal/service"
	"go.uber.org/zap"
)

// Коды ошибок для API
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeStagesLocked = "STAGES_LOCKED"
	ErrCodeTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal     = "INTERNAL"
)

type Handler struct {
	svc      *service.Service
	sessions *auth.Sessions
	logger   *zap.Logger
}

// New создает новый экземпляр обработчика
func New(svc *service.Service, sessions *auth.Sessions, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}
}

// ErrorResponse представляет структуру ошибки API
type ErrorResponse struct {
	OK    bool `json:"ok"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newErrorResponse создает стандартный ответ с ошибкой
func newErrorResponse(code, message string) ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

// ok создает успешный ответ с дополнительными полями
func ok(fields map[string]any) map[string]any {
	resp := map[string]any{"ok": true}
	for k, v := range fields {
		resp[k] = v
	}
	return resp
}

type errorKind struct {
	sentinel error
	status   int
	code     string
}

var errorKinds = []errorKind{
	{service.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
	{service.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{service.ErrStagesLocked, http.StatusBadRequest, ErrCodeStagesLocked},
	{repository.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{repository.ErrAlreadyExists, http.StatusConflict, ErrCodeConflict},
	{repository.ErrInvalidInput, http.StatusBadRequest, ErrCodeInvalidInput},
}

// respondError переводит ошибку сервиса в HTTP-ответ. Текст после sentinel-ошибки
// показывается клиенту, ошибки хранилища скрываются.
func (h *Handler) respondError(c echo.Context, op string, err error) error {
	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		message := strings.TrimPrefix(err.Error(), k.sentinel.Error()+": ")
		h.logger.Warn(op+": запрос отклонен", zap.String("code", k.code), zap.String("reason", message))
		return c.JSON(k.status, newErrorResponse(k.code, message))
	}

	h.logger.Error(op+": внутренняя ошибка", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, newErrorResponse(ErrCodeInternal, "internal error"))
}

// badRequest отвечает на некорректное тело запроса
func (h *Handler) badRequest(c echo.Context, op string, err error) error {
	h.logger.Warn(op+": ошибка парсинга тела запроса", zap.Error(err))
	return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "invalid request body"))
}

// HTTPErrorHandler отдает ошибки echo (404 маршрута, 413 от BodyLimit, panic) в формате API
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(status)
		if m, isString := he.Message.(string); isString {
			message = m
		}
	}

	code := ErrCodeInternal
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = ErrCodeNotFound
	case http.StatusRequestEntityTooLarge:
		code = ErrCodeTooLarge
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case http.StatusForbidden:
		code = ErrCodeForbidden
	case http.StatusBadRequest:
		code = ErrCodeInvalidInput
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("HTTPErrorHandler: необработанная ошибка", zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, newErrorResponse(code, message))
	}
	if werr != nil {
		h.logger.Error("HTTPErrorHandler: не удалось записать ответ", zap.Error(werr))
	}
}

// CORS разрешает запросы с cookie только перечисленным источникам.
// Пустые значения и "*" отбрасываются; без источников заголовки CORS не выдаются.
func CORS(origins []string) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != "*" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowed,
		AllowCredentials: true,
	})
}

// TrackActivity обновляет last_seen для каждого аутентифицированного запроса
func (h *Handler) TrackActivity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.svc.TouchLastSeen(c.Request().Context(), identity(c))
		return next(c)
	}
}

func identity(c echo.Context) auth.Identity {
	return auth.FromContext(c.Request().Context())
}

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", h.sessions.Middleware(), h.TrackActivity)

	// Users
	api.GET("/me", h.Me)
	api.GET("/users/:id", h.GetUser)
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.PUT("/profile", h.UpdateProfile)

	// Projects
	api.GET("/projects", h.ListProjects)
	api.POST("/projects", h.CreateProject)
	api.GET("/my-projects", h.ListMyProjects)
	api.GET("/projects/:id", h.GetProject)
	api.PUT("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)
	api.GET("/projects/:id/me", h.MyMembership)
	api.GET("/projects/:id/participants", h.Participants)

	// Membership
	api.POST("/projects/:id/kick", h.Kick)
	api.POST("/projects/:id/promote", h.Promote)
	api.POST("/projects/:id/demote", h.Demote)
	api.POST("/projects/:id/join", h.Join)
	api.POST("/projects/:id/leave", h.Leave)

	// Requests
	api.POST("/projects/:id/request-join", h.RequestJoin)
	api.POST("/projects/:id/request-promotion", h.RequestPromotion)
	api.GET("/projects/:id/requests", h.ListRequests)
	api.POST("/projects/:id/requests/:reqId/approve-join", h.ApproveJoin)
	api.POST("/projects/:id/requests/:reqId/reject-join", h.RejectJoin)
	api.POST("/projects/:id/requests/:reqId/approve-promotion", h.ApprovePromotion)
	api.POST("/projects/:id/requests/:reqId/reject-promotion", h.RejectPromotion)

	// Stages
	api.GET("/projects/:id/stages", h.ListStages)
	api.POST("/projects/:id/stages", h.AddStage)
	api.PUT("/projects/:id/stages/:stageId", h.RenameStage)
	api.DELETE("/projects/:id/stages/:stageId", h.DeleteStage)
	api.POST("/projects/:id/select-stage", h.SelectStage)

	// Tasks
	api.GET("/projects/:id/tasks", h.ListTasks)
	api.POST("/projects/:id/tasks", h.CreateTask)
	api.DELETE("/projects/:id/tasks/:taskId", h.DeleteTask)
	api.PUT("/projects/:id/tasks/:taskId/status", h.SetTaskStatus)
	api.POST("/projects/:id/tasks/:taskId/files", h.AddTaskFiles)
	api.DELETE("/projects/:id/tasks/:taskId/files/:fileId", h.DeleteTaskFile)
	api.GET("/projects/:id/tasks/:taskId/files/:fileId/download", h.DownloadTaskFile)

	// Files
	api.POST("/project-files", h.UploadProjectFiles)
	api.GET("/projects/:id/all-files", h.AllFiles)
	api.DELETE("/project-files/:fileId", h.DeleteProjectFile)
	api.GET("/project-files/:fileId/download", h.DownloadProjectFile)

	// Admin
	api.GET("/admin/tables", h.AdminTables)
	api.GET("/admin/tables/:table", h.AdminListRows)
	api.DELETE("/admin/tables/delete", h.AdminDeleteRow)
}
