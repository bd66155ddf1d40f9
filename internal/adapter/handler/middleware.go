package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/boat_booking/internal/core/services"
)

const (
	ctxRequestID = "request_id"
	ctxUserID    = "userID"
	ctxUserRole  = "userRole"
)

const (
	RoleCustomer       = "customer"
	RoleOperator       = "operator"
	RoleAdmin          = "admin"
	RolePaymentGateway = "payment_gateway"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"client_ip":  c.ClientIP(),
		})

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request processed")
		}
	}
}

func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Auth verifies an HS256 bearer token and puts its subject and role on the
// context. Tokens are issued elsewhere.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			abort(c, http.StatusUnauthorized, "unauthenticated", msg)
			return
		}

		sub, err := claims.GetSubject()
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "invalid token subject")
			return
		}

		userID, err := uuid.Parse(sub)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "invalid token subject")
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = RoleCustomer
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, strings.ToLower(role))
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[c.GetString(ctxUserRole)]; !ok {
			abort(c, http.StatusForbidden, "forbidden", "role not allowed")
			return
		}
		c.Next()
	}
}

func requester(c *gin.Context) services.Requester {
	userID, _ := c.Get(ctxUserID)
	id, _ := userID.(uuid.UUID)
	role := c.GetString(ctxUserRole)
	return services.Requester{
		UserID: id,
		Admin:  role == RoleAdmin || role == RoleOperator,
	}
}
