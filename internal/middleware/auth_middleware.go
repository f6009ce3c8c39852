package middleware

import (
	"context"
	"net/http"
	"strings"

	"carecircle/internal/transport/httpdto"
	"carecircle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MemberIDKey is the gin context key carrying the authenticated member id.
const MemberIDKey = "member_id"

// AuthMiddleware verifies the bearer token and extracts the acting family
// member's id from the subject claim. Token issuance lives in the identity
// service; this middleware only verifies.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		subject, err := parsed.Claims.GetSubject()
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		memberID, err := uuid.Parse(subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		c.Set(MemberIDKey, memberID)
		ctx := context.WithValue(c.Request.Context(), logger.MemberIdKey, memberID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// MemberID returns the authenticated member id set by AuthMiddleware.
func MemberID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(MemberIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
