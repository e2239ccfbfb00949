package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/auth"
	"vendingmachine/internal/ledger"
	"vendingmachine/pkg/response"
)

const (
	headerRequestID   = "X-Request-ID"
	ctxKeyRequestID   = "request_id"
	ctxKeyPrincipal   = "principal"
	ctxKeyClaims      = "claims"
	headerIdempotency = "Idempotency-Key"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware writes one access log line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		zap.S().Infow("[HTTP]",
			"status", status,
			"latency", latency,
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"request_id", c.GetString(ctxKeyRequestID),
		)
	}
}

// RecoveryMiddleware turns a panic into a 500 response.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Errorw("[PANIC]", "error", err, "path", c.Request.URL.Path,
					"request_id", c.GetString(ctxKeyRequestID))
				response.ServerError(c)
			}
		}()
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID, Idempotency-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AuthMiddleware requires a "Bearer <token>" header that verifies and has
// not been revoked, then stores the claims and principal in the context.
func AuthMiddleware(tokens *auth.TokenManager, denylist auth.Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			fail(c, ledger.ErrUnauthenticated)
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			fail(c, err)
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			fail(c, err)
			return
		}

		revoked, err := denylist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			fail(c, errors.Wrap(err, "check revoked tokens"))
			return
		}
		if revoked {
			fail(c, errors.WithMessage(ledger.ErrUnauthenticated, "token revoked"))
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyPrincipal, principal)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	return c.MustGet(ctxKeyClaims).(*auth.Claims)
}

func principalFrom(c *gin.Context) auth.Principal {
	return c.MustGet(ctxKeyPrincipal).(auth.Principal)
}
