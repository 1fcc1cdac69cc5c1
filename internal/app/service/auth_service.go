package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/ikkim/dealer-backend/pkg/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenRevoked       = util.ErrRevokedToken
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// TokenBlacklist remembers revoked token IDs until they would expire anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService interface {
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, claims *util.Claims) error
	Authenticate(ctx context.Context, accessToken string) (*util.Claims, error)
	GetUserByID(id uint) (*model.User, error)
	CreateUser(email, password, name string, role model.UserRole) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           Clock
}

// NewAuthService wires staff authentication. blacklist may be nil, which
// makes Logout a no-op on the server side.
func NewAuthService(
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           utcNow,
	}
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = model.NormalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if user == nil {
		logger.Warn("Login failed: user not found", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

// Refresh exchanges a valid refresh token for a new pair and revokes the
// old refresh token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		logger.Warn("Refresh rejected: invalid token", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		logger.Error("Failed to load user for refresh", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, err
	}
	if user == nil {
		logger.Warn("Refresh rejected: user no longer exists", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, util.ErrInvalidToken
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		logger.Warn("Failed to revoke used refresh token", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	logger.Info("Tokens refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if err := s.revoke(ctx, claims); err != nil {
		logger.Error("Failed to revoke token on logout", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}
	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

// Authenticate validates an access token and checks the blacklist.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*util.Claims, error) {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, util.ErrInvalidToken
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *authService) ensureNotRevoked(ctx context.Context, claims *util.Claims) error {
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// an unreachable blacklist must not lock every user out
		logger.Warn("Token blacklist lookup failed", map[string]interface{}{
			"user_id": claims.UserID,
			"error":   err.Error(),
		})
		return nil
	}
	if revoked {
		logger.Warn("Rejected revoked token", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return ErrTokenRevoked
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *util.Claims) error {
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.RemainingValidity(time.Now())
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, ttl)
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user", id)
	}
	return user, nil
}

// CreateUser registers a staff account. Used by the seeder and dealerctl.
func (s *authService) CreateUser(email, password, name string, role model.UserRole) (*model.User, error) {
	email = model.NormalizeEmail(email)
	verr := apperrors.NewValidationError()
	if email == "" {
		verr.Add("email", "is required")
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	if !role.Valid() {
		verr.Add("role", "must be one of ADMIN MANAGER SALESPERSON")
	}
	if len(password) < util.MinPasswordLength {
		verr.Add("password", util.ErrPasswordTooShort.Error())
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Warn("User creation rejected: email exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hash, err := util.HashNewPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    role,
	})
	return user, nil
}
