package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"go.uber.org/zap"
)

func outcomeResponse(o models.RequestOutcome) map[string]any {
	return ok(map[string]any{
		"already_member":  o == models.OutcomeAlreadyMember,
		"already_pending": o == models.OutcomeAlreadyPending,
		"revived":         o == models.OutcomeRevived,
	})
}

// RequestJoin подает заявку на вступление
func (h *Handler) RequestJoin(c echo.Context) error {
	projectID := c.Param("id")
	outcome, err := h.svc.RequestJoin(c.Request().Context(), identity(c), projectID)
	if err != nil {
		return h.respondError(c, "RequestJoin", err)
	}

	h.logger.Info("RequestJoin: заявка обработана", zap.String("project_id", projectID), zap.Int("outcome", int(outcome)))
	return c.JSON(http.StatusOK, outcomeResponse(outcome))
}

// RequestPromotion подает заявку на повышение
func (h *Handler) RequestPromotion(c echo.Context) error {
	projectID := c.Param("id")
	outcome, err := h.svc.RequestPromotion(c.Request().Context(), identity(c), projectID)
	if err != nil {
		return h.respondError(c, "RequestPromotion", err)
	}

	h.logger.Info("RequestPromotion: заявка обработана", zap.String("project_id", projectID), zap.Int("outcome", int(outcome)))
	return c.JSON(http.StatusOK, outcomeResponse(outcome))
}

// ListRequests возвращает ожидающие заявки
func (h *Handler) ListRequests(c echo.Context) error {
	lists, err := h.svc.ListRequests(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return h.respondError(c, "ListRequests", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"join": lists.Join, "promotion": lists.Promotion}))
}

type resolveFunc func(ctx context.Context, actor auth.Identity, projectID, requestID string) error

// resolve общая обработка одобрения и отклонения заявок
func (h *Handler) resolve(c echo.Context, op string, fn resolveFunc) error {
	projectID, requestID := c.Param("id"), c.Param("reqId")
	h.logger.Info(op+": обработка заявки", zap.String("project_id", projectID), zap.String("request_id", requestID))

	if err := fn(c.Request().Context(), identity(c), projectID, requestID); err != nil {
		return h.respondError(c, op, err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}

func (h *Handler) ApproveJoin(c echo.Context) error {
	return h.resolve(c, "ApproveJoin", h.svc.ApproveJoin)
}

func (h *Handler) RejectJoin(c echo.Context) error {
	return h.resolve(c, "RejectJoin", h.svc.RejectJoin)
}

func (h *Handler) ApprovePromotion(c echo.Context) error {
	return h.resolve(c, "ApprovePromotion", h.svc.ApprovePromotion)
}

func (h *Handler) RejectPromotion(c echo.Context) error {
	return h.resolve(c, "RejectPromotion", h.svc.RejectPromotion)
}
