package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/middleware"
	"github.com/noah-isme/reschedule-api/internal/models"
	"github.com/noah-isme/reschedule-api/pkg/middleware/requestid"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFields describes who issued the request for log lines.
func actorFields(c *gin.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if claims := claimsFromContext(c); claims != nil {
		fields = append(fields, zap.String("actor_id", claims.UserID), zap.String("actor_role", string(claims.Role)))
	}
	if reqID := requestid.Value(c); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	return fields
}
