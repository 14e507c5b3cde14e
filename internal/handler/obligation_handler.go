package handler

import (
	"net/http"

	"autoflow/internal/middleware"
	"autoflow/internal/model"
	"autoflow/internal/service"
	"autoflow/pkg/pagination"
	"autoflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ObligationHandler struct {
	obligationService service.ObligationService
}

func NewObligationHandler(obligationService service.ObligationService) *ObligationHandler {
	return &ObligationHandler{obligationService: obligationService}
}

func (h *ObligationHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	obligations := router.Group("/api/obligations")
	{
		obligations.GET("", read, h.ListObligations)
		obligations.GET("/:id", read, h.GetObligation)
		obligations.POST("", write, h.CreateObligation)
		obligations.PUT("/:id", write, h.UpdateObligation)
		obligations.DELETE("/:id", write, h.DeleteObligation)
	}
}

// ListObligations returns obligations with the outstanding-amount summary
// @Summary      List obligations
// @Tags         obligations
// @Security     BearerAuth
// @Produce      json
// @Param        status      query  string  false  "Filter by status"
// @Param        type        query  string  false  "Filter by obligation type"
// @Param        vehicle_id  query  string  false  "Filter by vehicle"
// @Param        due_before  query  string  false  "Only obligations due on or before (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/obligations [get]
func (h *ObligationHandler) ListObligations(c *gin.Context) {
	var query service.ObligationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	obligations, total, summary, err := h.obligationService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"obligations": obligations,
		"summary":     summary,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
	}))
}

func (h *ObligationHandler) GetObligation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	obligation, err := h.obligationService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, obligation))
}

// CreateObligation registers a compliance liability
// @Summary      Create obligation
// @Tags         obligations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ObligationRequest  true  "Obligation payload"
// @Success      201      {object}  response.Response{data=service.ObligationResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/obligations [post]
func (h *ObligationHandler) CreateObligation(c *gin.Context) {
	var req service.ObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	obligation, err := h.obligationService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, obligation))
}

func (h *ObligationHandler) UpdateObligation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.ObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	obligation, err := h.obligationService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, obligation))
}

func (h *ObligationHandler) DeleteObligation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.obligationService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
