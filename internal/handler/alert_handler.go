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

type AlertHandler struct {
	alertService service.AlertService
}

func NewAlertHandler(alertService service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	alerts := router.Group("/api/alerts")
	{
		alerts.GET("", read, h.ListAlerts)
		alerts.POST("/sweep", write, h.RunSweep)
		alerts.PUT("/:id/dismiss", write, h.DismissAlert)
		alerts.PUT("/:id/resolve", write, h.ResolveAlert)
	}
}

// ListAlerts returns alerts ordered by due date
// @Summary      List alerts
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        status      query  string  false  "Filter by status (default all)"
// @Param        alert_type  query  string  false  "Filter by alert type"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	var query service.AlertListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	alerts, total, err := h.alertService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// RunSweep triggers an immediate, unthrottled alert sweep
// @Summary      Run alert sweep
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SweepResult}
// @Router       /api/alerts/sweep [post]
func (h *AlertHandler) RunSweep(c *gin.Context) {
	result, err := h.alertService.Sweep(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *AlertHandler) DismissAlert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.alertService.Dismiss(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": model.AlertStatusDismissed}))
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.alertService.Resolve(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": model.AlertStatusResolved}))
}
