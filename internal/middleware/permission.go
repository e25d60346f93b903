package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

// Permission enforces the role permission matrix for a module (or module
// child). The required field follows the HTTP method: reads need view,
// writes need edit, deletes need delete. Must run after JWT.
func Permission(permissions *service.PermissionService, metrics *service.MetricsService, module, child models.ModuleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		field := fieldForMethod(c.Request.Method)
		allowed, err := permissions.Check(c.Request.Context(), identity, module, child, field)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		metrics.RecordPermissionCheck(allowed)
		if !allowed {
			response.Error(c, appErrors.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

func fieldForMethod(method string) models.PermissionField {
	switch method {
	case http.MethodGet, http.MethodHead:
		return models.PermissionFieldView
	case http.MethodDelete:
		return models.PermissionFieldDelete
	default:
		return models.PermissionFieldEdit
	}
}
