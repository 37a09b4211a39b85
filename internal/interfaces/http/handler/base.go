// Package handler implements the HTTP endpoints.
package handler

import (
	"github.com/gcci/certgen/internal/interfaces/http/dto"
	"github.com/gcci/certgen/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(200, dto.NewSuccessResponse(data))
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// ErrorWithDetails sends an error response carrying field details
func (h *BaseHandler) ErrorWithDetails(c *gin.Context, code, message string, details []dto.FieldDetail) {
	resp := dto.NewErrorResponse(code, message, middleware.GetRequestID(c)).WithDetails(details)
	c.JSON(dto.GetHTTPStatus(code), resp)
}
