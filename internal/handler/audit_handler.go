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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	{
		audit.GET("", middleware.RequireRole(model.RoleAdmin), h.ListEntries)
	}
}

// ListEntries returns the filtered audit trail
// @Summary      List audit entries
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        search       query  string  false  "Match summary text"
// @Param        action       query  string  false  "create, update or delete"
// @Param        entity_type  query  string  false  "Filter by entity type"
// @Param        entity_id    query  string  false  "Filter by entity id"
// @Param        user_id      query  string  false  "Filter by acting user"
// @Param        date_from    query  string  false  "Window start (YYYY-MM-DD)"
// @Param        date_to      query  string  false  "Window end (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/audit [get]
func (h *AuditHandler) ListEntries(c *gin.Context) {
	var query service.AuditListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query: "+err.Error()))
		return
	}
	p := pagination.Parse(c)

	entries, total, err := h.auditService.List(c.Request.Context(), query, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}
