package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ClaimsKey is the gin context key holding the caller's flattened claims.
const ClaimsKey = "claims"

// AuthMiddleware validates an optional HS256 bearer token and stores its
// claims in the context. Requests without an Authorization header pass
// through anonymously; tenant resolution decides later whether that is
// enough. A header that is present but invalid is rejected with 401.
func AuthMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	keyFunc := func(t *jwt.Token) (any, error) {
		return secret, nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, keyFunc)
		if err != nil || !token.Valid {
			if err == nil {
				err = errors.New("token not valid")
			}
			logger.Debug("jwt rejected", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, FlattenClaims(claims))
		c.Next()
	}
}

// FlattenClaims renders every claim as a string the way API Gateway hands
// JWT claims to a Lambda. Arrays become comma lists so "cognito:groups"
// reads the same from either entry point.
func FlattenClaims(claims jwt.MapClaims) map[string]string {
	out := make(map[string]string, len(claims))
	for k, v := range claims {
		out[k] = claimString(v)
	}
	return out
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, claimString(e))
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware, or nil.
func ClaimsFrom(c *gin.Context) map[string]string {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(map[string]string)
	return claims
}
