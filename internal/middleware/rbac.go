package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/response"
)

// RequireRoles rejects requests whose caller is missing or holds none of
// the given roles. It backs up the gate on API routes where a redirect is
// not useful.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		caller := CallerFromContext(c)
		if caller == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[caller.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
