package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
	"github.com/rongwang/finance-server/internal/service"
)

// Handler serves the HTTP API on top of the service layer
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// NewRouter builds a gin engine with the standard middleware chain and all
// routes mounted.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger))
	h.SetupRoutes(router)
	return router
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(AuthMiddleware(h.svc, h.logger))

	router.GET("/health", h.Health)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", h.Me)
	}

	for _, kind := range []models.RecordKind{models.KindIncome, models.KindExpense} {
		records := router.Group("/" + kind.Table())
		{
			records.GET("", h.ListRecords(kind))
			records.POST("", h.CreateRecord(kind))
			records.GET("/:id", h.GetRecord(kind))
			records.PUT("/:id", h.UpdateRecord(kind))
			records.DELETE("/:id", h.DeleteRecord(kind))
		}
	}

	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.GET("/:id", h.GetCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	balances := router.Group("/balances")
	{
		balances.GET("", h.ListBalances)
		balances.POST("", h.CreateBalance)
		balances.GET("/latest", h.LatestBalance)
		balances.GET("/:id", h.GetBalance)
		balances.PUT("/:id", h.UpdateBalance)
		balances.DELETE("/:id", h.DeleteBalance)
	}

	transactions := router.Group("/transactions")
	{
		transactions.GET("/summary", h.Summary)
		transactions.GET("/by-category", h.ByCategory)
	}

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.PUT("/me", h.UpdateProfile)
		users.DELETE("/me", h.DeleteAccount)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_FOUND",
			Message: "Route not found",
		})
	})
}

// Health pings storage
func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		h.respondError(c, apperr.Internal("ping database", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError writes the error body for err. Internal errors are logged
// and never leak their cause.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    apperr.Code(err),
		Message: apperr.PublicMessage(err),
	})
}

// currentUserID returns the authenticated caller, or writes a 401 and
// reports false.
func (h *Handler) currentUserID(c *gin.Context) (int64, bool) {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	h.respondError(c, apperr.Unauthenticated("Authentication required"))
	return 0, false
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := service.ParseID("id", c.Param("id"))
	if err != nil {
		h.respondError(c, apperr.Validation("invalid id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.respondError(c, apperr.Validation("invalid request body"))
		return false
	}
	return true
}

func listQuery(c *gin.Context) models.ListQuery {
	return models.ListQuery{
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
		CategoryID: c.Query("categoryId"),
		Type:       c.Query("type"),
		Limit:      c.Query("limit"),
		Offset:     c.Query("offset"),
	}
}

type dataResponse struct {
	Data interface{} `json:"data"`
}
