package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CtxIdentity = "identity"
	CtxIsOwner  = "is_owner"
)

// Middleware resolves the viewer identity on every request and stores it,
// with the owner flag, in the gin context.
func Middleware(resolver *Resolver, gate OwnerGate, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolver.Resolve(NewCookieStore(c, opts))

		c.Set(CtxIdentity, id)
		c.Set(CtxIsOwner, gate.IsOwner(id))
		c.Next()
	}
}

// From extracts the identity set by Middleware.
func From(c *gin.Context) Identity {
	if v, ok := c.Get(CtxIdentity); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}

// IsOwner reports whether the current viewer is the configured owner.
func IsOwner(c *gin.Context) bool {
	return c.GetBool(CtxIsOwner)
}

// RequireOwner rejects JSON management calls from anyone but the owner.
func RequireOwner(c *gin.Context) {
	if !IsOwner(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
		return
	}
	c.Next()
}
