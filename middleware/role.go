package middleware

import (
	"net/http"

	"medbook/utils"

	"github.com/gin-gonic/gin"
)

// RequireStaff lets staff and admins through. It must run after JWTAuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return requireRole(utils.Principal.IsStaff, "Staff access required")
}

// RequireAdmin lets admins through. It must run after JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(utils.Principal.IsAdmin, "Admin access required")
}

func requireRole(allowed func(utils.Principal) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "")
			c.Abort()
			return
		}
		if !allowed(p) {
			utils.JSONError(c, http.StatusForbidden, message, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
