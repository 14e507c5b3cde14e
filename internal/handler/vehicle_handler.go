package handler

import (
	"net/http"

	"autoflow/internal/middleware"
	"autoflow/internal/model"
	"autoflow/internal/service"
	"autoflow/pkg/pagination"
	"autoflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	vehicleService service.VehicleService
}

func NewVehicleHandler(vehicleService service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	vehicles := router.Group("/api/vehicles")
	{
		vehicles.GET("", read, h.ListVehicles)
		vehicles.GET("/options", read, h.VehicleOptions)
		vehicles.GET("/:id", read, h.GetVehicle)
		vehicles.POST("", write, h.CreateVehicle)
		vehicles.PUT("/:id", write, h.UpdateVehicle)
		vehicles.DELETE("/:id", write, h.DeleteVehicle)
		vehicles.POST("/:id/mileage", write, h.CorrectMileage)
		vehicles.POST("/:id/images", write, h.AttachImage)
		vehicles.DELETE("/:id/images/:imageId", write, h.DetachImage)
	}
}

// ListVehicles returns a paginated, filtered fleet listing
// @Summary      List vehicles
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        search        query  string  false  "Match brand, model, plate or internal code"
// @Param        status        query  string  false  "Filter by status"
// @Param        year          query  int     false  "Filter by year"
// @Param        availability  query  string  false  "available or unavailable"
// @Param        page          query  int     false  "Page number (default 1)"
// @Param        limit         query  int     false  "Items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var query service.VehicleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// VehicleOptions returns the minimal projection used to populate selects
func (h *VehicleHandler) VehicleOptions(c *gin.Context) {
	options, err := h.vehicleService.Options(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, options))
}

// GetVehicle returns one vehicle with its plans, obligations and gallery
// @Summary      Vehicle detail
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response{data=service.VehicleDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	detail, err := h.vehicleService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// CreateVehicle registers a fleet vehicle
// @Summary      Create vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VehicleRequest  true  "Vehicle payload"
// @Success      201      {object}  response.Response{data=service.VehicleResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/vehicles [post]
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// UpdateVehicle edits a fleet vehicle
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// DeleteVehicle removes a vehicle without rentals, cascading its dependents
// @Summary      Delete vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Vehicle still has rentals"
// @Router       /api/vehicles/{id} [delete]
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.vehicleService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// CorrectMileage records a manual odometer correction
func (h *VehicleHandler) CorrectMileage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.MileageCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.vehicleService.CorrectMileage(c.Request.Context(), middleware.CurrentUserID(c), id, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"mileage_km": req.MileageKm}))
}

// AttachImage registers gallery metadata for an uploaded file
func (h *VehicleHandler) AttachImage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	image, err := h.vehicleService.AttachImage(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, image))
}

// DetachImage removes one gallery entry and reports its storage path
func (h *VehicleHandler) DetachImage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	imageID, err := uuid.Parse(c.Param("imageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid image id"))
		return
	}

	path, err := h.vehicleService.DetachImage(c.Request.Context(), id, imageID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"storage_path": path}))
}
