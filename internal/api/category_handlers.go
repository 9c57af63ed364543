package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/finance-server/internal/models"
)

func (h *Handler) ListCategories(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	categories, err := h.svc.ListCategories(c.Request.Context(), userID, listQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: categories})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dataResponse{Data: category})
}

func (h *Handler) GetCategory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	category, err := h.svc.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: category})
}

// DeleteCategory answers 409 while any income or expense still uses the category
func (h *Handler) DeleteCategory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: models.DeletedResponse{ID: id}})
}
