package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// claimsFromContext returns the caller set by middleware.JWT, or nil on
// public routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// departmentQuery reads the optional department override. Empty means the
// caller's own department.
func departmentQuery(c *gin.Context) string {
	return strings.TrimSpace(c.Query("department_id"))
}
