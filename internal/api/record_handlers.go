package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/finance-server/internal/models"
)

// Incomes and expenses share one contract; each handler is bound to a kind.

func (h *Handler) ListRecords(kind models.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.currentUserID(c)
		if !ok {
			return
		}

		records, err := h.svc.ListRecords(c.Request.Context(), kind, userID, listQuery(c))
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, dataResponse{Data: records})
	}
}

func (h *Handler) CreateRecord(kind models.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.currentUserID(c)
		if !ok {
			return
		}

		var req models.CreateRecordRequest
		if !h.bindJSON(c, &req) {
			return
		}

		record, err := h.svc.CreateRecord(c.Request.Context(), kind, userID, req)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, dataResponse{Data: record})
	}
}

func (h *Handler) GetRecord(kind models.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.currentUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}

		record, err := h.svc.GetRecord(c.Request.Context(), kind, userID, id)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, dataResponse{Data: record})
	}
}

func (h *Handler) UpdateRecord(kind models.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.currentUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}

		var req models.UpdateRecordRequest
		if !h.bindJSON(c, &req) {
			return
		}

		record, err := h.svc.UpdateRecord(c.Request.Context(), kind, userID, id, req)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, dataResponse{Data: record})
	}
}

func (h *Handler) DeleteRecord(kind models.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.currentUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}

		if err := h.svc.DeleteRecord(c.Request.Context(), kind, userID, id); err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, dataResponse{Data: models.DeletedResponse{ID: id}})
	}
}
