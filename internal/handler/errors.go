package handler

import (
	"errors"
	"net/http"

	"autoflow/internal/service"
	"autoflow/pkg/fielderr"
	"autoflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeServiceError maps service-layer failures onto the response envelope.
func writeServiceError(c *gin.Context, err error) {
	var fieldErrs fielderr.Errors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, fieldErrs))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "not found"))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// parseIDParam reads and validates the :id path parameter.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
