package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextCustomerID = "customer_id"
	contextStaff      = "staff"
)

// identityClaims is the token payload issued by the identity provider.
// The service trusts the verified claims as given.
type identityClaims struct {
	CustomerID int64 `json:"customer_id"`
	Staff      bool  `json:"staff"`
	jwt.RegisteredClaims
}

// authMiddleware verifies the bearer token and puts the caller's identity
// into the request context.
func authMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		claims := &identityClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(contextCustomerID, claims.CustomerID)
		c.Set(contextStaff, claims.Staff)
		c.Next()
	}
}

// requireStaff rejects callers whose token does not carry the staff flag.
func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(contextStaff) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff access required"})
			return
		}
		c.Next()
	}
}

func callerCustomerID(c *gin.Context) int64 {
	return c.GetInt64(contextCustomerID)
}
