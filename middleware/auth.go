package middleware

import (
	"net/http"
	"strings"

	"medbook/utils"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenValidator is satisfied by *utils.TokenIssuer.
type TokenValidator interface {
	ValidateToken(token string) (utils.Principal, error)
}

// JWTAuthMiddleware requires a valid bearer token and stores the caller on the context.
func JWTAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			c.Abort()
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		principal, err := validator.ValidateToken(tokenString)
		if err != nil || principal.ID == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", "")
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Set("userID", principal.ID)
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by JWTAuthMiddleware.
func PrincipalFrom(c *gin.Context) (utils.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return utils.Principal{}, false
	}
	p, ok := v.(utils.Principal)
	return p, ok
}
