package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/service"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/ikkim/dealer-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateUserRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required"`
	Name     string         `json:"name" binding:"required"`
	Role     model.UserRole `json:"role" binding:"required"`
}

// Login handles staff login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenRevoked):
			log.Warn("Token refresh failed: token revoked", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "refresh token has been revoked, please log in again")
		case errors.Is(err, util.ErrExpiredToken):
			log.Warn("Token refresh failed: token expired", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "refresh token has expired, please log in again")
		case errors.Is(err, util.ErrInvalidToken):
			log.Warn("Token refresh failed: invalid token", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid refresh token, please log in again")
		default:
			log.Error("Failed to refresh token", err, nil)
			apperrors.InternalError(c, "token refresh failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"tokens":  tokens,
	})
}

// Logout revokes the access token used for this request
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		// the client drops its tokens regardless
		log.Error("Failed to revoke token during logout", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetMe returns the authenticated staff member
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to GetMe endpoint", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondError(c, log, err, "Failed to get user information", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// CreateUser adds a staff account (Admin only)
// POST /api/v1/auth/users
func (ctrl *AuthController) CreateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.CreateUser(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			log.Warn("User creation failed: email exists", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithError(c, http.StatusConflict, apperrors.ResourceAlreadyExists, "email is already in use")
			return
		}
		respondError(c, log, err, "Failed to create user", map[string]interface{}{
			"email": req.Email,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}
