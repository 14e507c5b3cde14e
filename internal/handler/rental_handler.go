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

type RentalHandler struct {
	rentalService service.RentalService
}

func NewRentalHandler(rentalService service.RentalService) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

func (h *RentalHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	rentals := router.Group("/api/rentals")
	{
		rentals.GET("", read, h.ListRentals)
		rentals.GET("/:id", read, h.GetRental)
		rentals.POST("", write, h.CreateRental)
		rentals.PUT("/:id", write, h.UpdateRental)
		rentals.DELETE("/:id", write, h.DeleteRental)
	}

	clients := router.Group("/api/clients")
	{
		clients.GET("/:identifier/rentals", read, h.ClientHistory)
	}
}

// ListRentals returns a paginated, filtered booking listing
// @Summary      List rentals
// @Tags         rentals
// @Security     BearerAuth
// @Produce      json
// @Param        search      query  string  false  "Match client name, document or plate"
// @Param        status      query  string  false  "Filter by status"
// @Param        vehicle_id  query  string  false  "Filter by vehicle"
// @Param        date_from   query  string  false  "Start of window (YYYY-MM-DD)"
// @Param        date_to     query  string  false  "End of window (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/rentals [get]
func (h *RentalHandler) ListRentals(c *gin.Context) {
	var query service.RentalListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	rentals, total, err := h.rentalService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"rentals": rentals,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

func (h *RentalHandler) GetRental(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	rental, err := h.rentalService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rental))
}

// CreateRental books a vehicle for a client over a date interval
// @Summary      Create rental
// @Tags         rentals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RentalRequest  true  "Rental payload"
// @Success      201      {object}  response.Response{data=service.RentalResponse}
// @Failure      422      {object}  response.Response  "Validation or overlap failure"
// @Router       /api/rentals [post]
func (h *RentalHandler) CreateRental(c *gin.Context) {
	var req service.RentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rental, err := h.rentalService.Create(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rental))
}

func (h *RentalHandler) UpdateRental(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.RentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rental, err := h.rentalService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rental))
}

func (h *RentalHandler) DeleteRental(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.rentalService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// ClientHistory returns a client's rentals with lifetime totals
// @Summary      Client rental history
// @Tags         rentals
// @Security     BearerAuth
// @Produce      json
// @Param        identifier  path      string  true  "Client document or name"
// @Success      200         {object}  response.Response{data=service.ClientHistoryResponse}
// @Router       /api/clients/{identifier}/rentals [get]
func (h *RentalHandler) ClientHistory(c *gin.Context) {
	identifier := c.Param("identifier")
	p := pagination.Parse(c)

	history, err := h.rentalService.ClientHistory(c.Request.Context(), identifier, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
