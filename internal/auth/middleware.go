package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/services/datamanager"
)

const (
	CtxClaimsKey  = "auth_claims"
	CtxSessionKey = "auth_session"
)

// Middleware rejects requests without a valid, unrevoked bearer token and
// attaches the claims and session to the context.
func Middleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, sess, err := svc.Authenticate(c.Request.Context(), strings.TrimSpace(h[len("Bearer "):]))
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, apperr.ErrUnauthorized) {
				status = http.StatusServiceUnavailable
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSessionKey, sess)
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// SessionFrom returns nil outside the middleware, which services treat as anonymous.
func SessionFrom(c *gin.Context) *datamanager.Session {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*datamanager.Session)
	return sess
}
