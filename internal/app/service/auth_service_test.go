package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (b *memoryBlacklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenID] = ttl
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[tokenID]
	return ok, nil
}

func setupAuthServiceTest(t *testing.T) (AuthService, *memoryBlacklist) {
	util.BcryptCost = 4
	testDB := setupTestDB(t)

	blacklist := &memoryBlacklist{revoked: make(map[string]time.Duration)}
	authService := NewAuthService(
		repository.NewUserRepository(testDB),
		blacklist,
		"test-jwt-secret",
		15*time.Minute,
		7*24*time.Hour,
	)

	_, err := authService.CreateUser("manager@dealer.test", "password123", "Morgan Manager", model.RoleManager)
	require.NoError(t, err)
	return authService, blacklist
}

func TestAuthService_CreateUser(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	tests := []struct {
		name     string
		email    string
		password string
		role     model.UserRole
		wantErr  error
	}{
		{"valid salesperson", "rep@dealer.test", "password123", model.RoleSalesperson, nil},
		{"duplicate email", "Manager@Dealer.test", "password123", model.RoleManager, ErrEmailAlreadyExists},
		{"short password", "short@dealer.test", "pw", model.RoleSalesperson, apperrors.ErrValidation},
		{"unknown role", "role@dealer.test", "password123", model.UserRole("OWNER"), apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.CreateUser(tt.email, tt.password, "Staff", tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.NotEqual(t, tt.password, user.PasswordHash)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	user, tokens, err := authService.Login(" MANAGER@dealer.test", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, user.Role)
	assert.NotNil(t, user.LastLoginAt)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := authService.Authenticate(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "MANAGER", claims.Role)

	_, _, err = authService.Login("manager@dealer.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.Login("nobody@dealer.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_AuthenticateRejectsRefreshToken(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)
	_, tokens, err := authService.Login("manager@dealer.test", "password123")
	require.NoError(t, err)

	_, err = authService.Authenticate(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	authService, blacklist := setupAuthServiceTest(t)
	ctx := context.Background()
	_, tokens, err := authService.Login("manager@dealer.test", "password123")
	require.NoError(t, err)

	claims, err := authService.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.NoError(t, authService.Logout(ctx, claims))

	ttl, ok := blacklist.revoked[claims.ID]
	require.True(t, ok)
	assert.True(t, ttl > 0 && ttl <= 15*time.Minute)

	_, err = authService.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_Refresh(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)
	ctx := context.Background()
	_, tokens, err := authService.Login("manager@dealer.test", "password123")
	require.NoError(t, err)

	refreshed, err := authService.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)

	// a refresh token is single use
	_, err = authService.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = authService.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)
	user, _, err := authService.Login("manager@dealer.test", "password123")
	require.NoError(t, err)

	found, err := authService.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morgan Manager", found.Name)

	_, err = authService.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
