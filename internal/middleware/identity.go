package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/service"
	"github.com/schoolgate/pickup-api/pkg/response"
)

// ContextAuthKey is the gin context key storing the resolved actor.
const ContextAuthKey = "currentActor"

// HeaderOpenID carries the gateway-injected caller token. HeaderFromOpenID
// is set instead on forwarded official-account callbacks.
const (
	HeaderOpenID     = "X-WX-OPENID"
	HeaderFromOpenID = "X-WX-FROM-OPENID"
)

// callerToken extracts the external identity token injected by the gateway.
func callerToken(c *gin.Context) string {
	if token := c.GetHeader(HeaderOpenID); token != "" {
		return token
	}
	return c.GetHeader(HeaderFromOpenID)
}

// RequireRole resolves the caller's identity and blocks unless it carries
// the required role. Pass models.RoleAny to accept guardians and staff.
func RequireRole(identity *service.IdentityService, required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := identity.ResolveRole(c.Request.Context(), callerToken(c), required)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextAuthKey, auth)
		c.Next()
	}
}

// CurrentActor returns the resolved actor stored by RequireRole.
func CurrentActor(c *gin.Context) (*models.AuthContext, bool) {
	value, ok := c.Get(ContextAuthKey)
	if !ok {
		return nil, false
	}
	auth, ok := value.(*models.AuthContext)
	return auth, ok
}
