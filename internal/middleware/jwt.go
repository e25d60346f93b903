package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// ContextIdentityKey is the gin context key storing the resolved Identity,
// including the caller's project assignments.
const ContextIdentityKey = "currentIdentity"

type assignmentResolver interface {
	AssignedProjectIDs(ctx context.Context, userID string) ([]string, error)
}

// JWT protects routes by requiring a valid access token. On success the
// claims and a resolved Identity (with project assignments) are stored in
// the gin context for downstream permission checks.
func JWT(authService *service.AuthService, assignments assignmentResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		identity := claims.Identity()
		if assignments != nil && identity.Role != models.RoleSuperAdmin {
			ids, err := assignments.AssignedProjectIDs(c.Request.Context(), identity.UserID)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			identity.AssignedProjectIDs = ids
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// IdentityFromContext returns the resolved Identity for the request, or
// false when the route is not authenticated.
func IdentityFromContext(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}
