// Package authgin adapts the core authenticator to gin. It is the only layer
// that turns verification outcomes into HTTP status codes.
package authgin

import (
	"github.com/gin-gonic/gin"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/core"
)

const (
	ctxUserID = "auth.user_id"
	ctxClaims = "auth.claims"
)

// AuthRequired verifies the bearer token and aborts with 401 when the caller
// is anonymous or the token is rejected for any reason. Handlers behind it
// can rely on auth.user_id being set.
func AuthRequired(svc *core.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := svc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil || id == nil {
			ginutil.Unauthorized(c)
			return
		}
		c.Set(ctxUserID, id.UserID)
		c.Set(ctxClaims, id.Claims)
		c.Next()
	}
}

// AuthOptional verifies the bearer token when one is presented but lets
// anonymous requests through. A rejected token is treated the same as no
// token; the handler sees an unauthenticated request either way.
func AuthOptional(svc *core.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := svc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err == nil && id != nil {
			c.Set(ctxUserID, id.UserID)
			c.Set(ctxClaims, id.Claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// ClaimsFromGin returns the verified token claims, if any.
func ClaimsFromGin(c *gin.Context) (map[string]any, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}
