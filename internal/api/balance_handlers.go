package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/finance-server/internal/models"
)

func (h *Handler) ListBalances(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	balances, err := h.svc.ListBalances(c.Request.Context(), userID, listQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: balances})
}

func (h *Handler) CreateBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateBalanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	balance, err := h.svc.CreateBalance(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dataResponse{Data: balance})
}

func (h *Handler) LatestBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.svc.LatestBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: balance})
}

func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	balance, err := h.svc.GetBalance(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: balance})
}

func (h *Handler) UpdateBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req models.UpdateBalanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	balance, err := h.svc.UpdateBalance(c.Request.Context(), userID, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: balance})
}

func (h *Handler) DeleteBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteBalance(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: models.DeletedResponse{ID: id}})
}
