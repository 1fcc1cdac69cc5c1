package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	ClaimsKey    = "claims"
)

// TokenAuthenticator validates an access token, blacklist included.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*util.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenAuthenticator
}

func NewAuthMiddleware(tokens TokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate requires a bearer token. Websocket clients may pass it as
// the token query parameter instead.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "authorization header must be: Bearer <token>")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				apperrors.Unauthorized(c, "Authorization header is required")
				c.Abort()
				return
			}
		}

		claims, err := m.tokens.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case errors.Is(err, util.ErrExpiredToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "token has expired")
			case errors.Is(err, util.ErrRevokedToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "token has been revoked")
			default:
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid token")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Set(ClaimsKey, claims)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// RequireRole lets the request through when the user holds one of roles.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Forbidden(c, "role information not found")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		apperrors.Forbidden(c, "")
		c.Abort()
	}
}

func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetClaims returns the validated token claims set by Authenticate.
func GetClaims(c *gin.Context) (*util.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}
