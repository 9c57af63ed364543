package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// Summary returns income and expense totals for ?startDate&endDate
func (h *Handler) Summary(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summarize(c.Request.Context(), userID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: summary})
}

// ByCategory groups expenses (default) or incomes by category
func (h *Handler) ByCategory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	kind := models.KindExpense
	switch strings.ToLower(c.DefaultQuery("type", string(models.KindExpense))) {
	case string(models.KindExpense):
	case string(models.KindIncome):
		kind = models.KindIncome
	default:
		h.respondError(c, apperr.Validation("type must be income or expense"))
		return
	}

	rows, err := h.svc.TotalsByCategory(c.Request.Context(), kind, userID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: rows})
}
