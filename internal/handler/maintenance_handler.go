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

type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
	planService        service.PlanService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService, planService service.PlanService) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		planService:        planService,
	}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	records := router.Group("/api/maintenance")
	{
		records.GET("", read, h.ListRecords)
		records.GET("/:id", read, h.GetRecord)
		records.POST("", write, h.CreateRecord)
		records.PUT("/:id", write, h.UpdateRecord)
		records.DELETE("/:id", write, h.DeleteRecord)
	}

	plans := router.Group("/api/maintenance-plans")
	{
		plans.GET("", read, h.ListPlans)
		plans.GET("/:id", read, h.GetPlan)
		plans.POST("", write, h.CreatePlan)
		plans.PUT("/:id", write, h.UpdatePlan)
		plans.DELETE("/:id", write, h.DeletePlan)
	}
}

// --- Records ---

// ListRecords returns a paginated maintenance history
// @Summary      List maintenance records
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Param        search      query  string  false  "Match service type, brand, model or plate"
// @Param        status      query  string  false  "Filter by status"
// @Param        vehicle_id  query  string  false  "Filter by vehicle"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/maintenance [get]
func (h *MaintenanceHandler) ListRecords(c *gin.Context) {
	var query service.MaintenanceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	records, total, err := h.maintenanceService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

func (h *MaintenanceHandler) GetRecord(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	record, err := h.maintenanceService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// CreateRecord logs a service entry and rolls the matching plan forward
func (h *MaintenanceHandler) CreateRecord(c *gin.Context) {
	var req service.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.maintenanceService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

func (h *MaintenanceHandler) UpdateRecord(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.maintenanceService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

func (h *MaintenanceHandler) DeleteRecord(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.maintenanceService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// --- Plans ---

func (h *MaintenanceHandler) ListPlans(c *gin.Context) {
	var query service.PlanListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	plans, total, err := h.planService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"plans": plans,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

func (h *MaintenanceHandler) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}

// CreatePlan registers a recurring service rule
// @Summary      Create maintenance plan
// @Tags         maintenance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PlanRequest  true  "Plan payload"
// @Success      201      {object}  response.Response{data=service.PlanResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/maintenance-plans [post]
func (h *MaintenanceHandler) CreatePlan(c *gin.Context) {
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, plan))
}

func (h *MaintenanceHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}

func (h *MaintenanceHandler) DeletePlan(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.planService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
