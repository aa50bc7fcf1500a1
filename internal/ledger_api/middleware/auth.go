package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ActorKey stores the authenticated actor reference
	ActorKey = "actor_ref"

	// CapabilitiesKey stores the authenticated actor's capability set
	CapabilitiesKey = "capabilities"
)

// Claims are the bearer token claims. The subject is the actor reference.
type Claims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// Authenticate validates the bearer token and stores the actor and capabilities
func Authenticate(jwtSecret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header format must be Bearer {token}")
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}))
		if err != nil {
			logger.Warn("Rejected bearer token",
				"error", err,
				"correlation_id", GetCorrelationID(c),
			)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			}
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", msg)
			return
		}

		if claims.Subject == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token claims")
			return
		}

		capabilities := make(map[shared.Capability]struct{}, len(claims.Capabilities))
		for _, capability := range claims.Capabilities {
			capabilities[shared.Capability(capability)] = struct{}{}
		}

		c.Set(ActorKey, claims.Subject)
		c.Set(CapabilitiesKey, capabilities)
		c.Next()
	}
}

// RequireCapability rejects actors whose token does not grant capability
func RequireCapability(capability shared.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasCapability(c, capability) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Missing capability "+string(capability))
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor reference, empty when unauthenticated
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}

func HasCapability(c *gin.Context, capability shared.Capability) bool {
	value, exists := c.Get(CapabilitiesKey)
	if !exists {
		return false
	}
	capabilities, ok := value.(map[shared.Capability]struct{})
	if !ok {
		return false
	}
	_, granted := capabilities[capability]
	return granted
}
