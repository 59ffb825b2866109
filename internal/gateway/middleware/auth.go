package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartgadgets-system/internal/utils"
)

const claimsContextKey = "auth_claims"

// TokenFromHeader accepts both "Bearer <token>" and "Token <token>" forms.
func TokenFromHeader(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	for _, prefix := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(header, prefix) {
			return strings.TrimPrefix(header, prefix)
		}
	}
	return header
}

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromHeader(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// IsAdminRequest reports whether the request carries a valid admin token.
// Mixed-access endpoints use it instead of the hard JWTAuth gate.
func IsAdminRequest(c *gin.Context, secret []byte) bool {
	token := TokenFromHeader(c)
	if token == "" {
		return false
	}
	_, err := utils.ParseToken(secret, token)
	return err == nil
}
