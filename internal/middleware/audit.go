package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// AuditRecorder persists audit rows.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit row after every successful request. A nil recorder disables it.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if raw, ok := c.Get(ContextUserKey); ok {
			if claims, ok := raw.(*models.JWTClaims); ok {
				userID = &claims.UserID
			}
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"query":   c.Request.URL.RawQuery,
			"latency": time.Since(start).Milliseconds(),
		})

		_ = recorder.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:       userID,
			DepartmentID: c.GetString(ContextDepartmentKey),
			Action:       action,
			Resource:     resource,
			ResourceID:   resourceID,
			NewValues:    body,
			IPAddress:    c.ClientIP(),
			UserAgent:    c.GetHeader("User-Agent"),
		})
	}
}
