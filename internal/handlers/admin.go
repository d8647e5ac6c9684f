package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminTables возвращает список таблиц, доступных администратору
func (h *Handler) AdminTables(c echo.Context) error {
	tables, err := h.svc.AdminTables(identity(c))
	if err != nil {
		return h.respondError(c, "AdminTables", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"tables": tables}))
}

// AdminListRows возвращает все строки таблицы
func (h *Handler) AdminListRows(c echo.Context) error {
	table := c.Param("table")
	rows, err := h.svc.AdminListRows(c.Request().Context(), identity(c), table)
	if err != nil {
		return h.respondError(c, "AdminListRows", err)
	}
	return c.JSON(http.StatusOK, ok(map[string]any{"table": table, "rows": rows}))
}

// AdminDeleteRow удаляет строку по значениям первичного ключа
func (h *Handler) AdminDeleteRow(c echo.Context) error {
	var req struct {
		Table string         `json:"table"`
		Row   map[string]any `json:"row"`
	}
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "AdminDeleteRow", err)
	}

	h.logger.Info("AdminDeleteRow: удаление строки", zap.String("table", req.Table))

	if err := h.svc.AdminDeleteRow(c.Request().Context(), identity(c), req.Table, req.Row); err != nil {
		return h.respondError(c, "AdminDeleteRow", err)
	}
	return c.JSON(http.StatusOK, ok(nil))
}
