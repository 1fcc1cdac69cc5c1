package repository

import (
	"testing"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewUserRepository(testDB)
}

func TestUserRepository_Create(t *testing.T) {
	_, repo := setupUserTest(t)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name:    "Valid user",
			user:    &model.User{Email: "rep@dealer.test", PasswordHash: "hash", Name: "Rep", Role: model.RoleSalesperson},
			wantErr: false,
		},
		{
			name:    "Duplicate email",
			user:    &model.User{Email: "rep@dealer.test", PasswordHash: "hash", Name: "Other", Role: model.RoleManager},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.user.ID)
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	_, repo := setupUserTest(t)

	user := &model.User{Email: "mgr@dealer.test", PasswordHash: "hash", Name: "Manager", Role: model.RoleManager}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByEmail("MGR@dealer.test ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, model.RoleManager, found.Role)

	missing, err := repo.FindByEmail("nobody@dealer.test")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_TouchLastLoginAndDelete(t *testing.T) {
	_, repo := setupUserTest(t)

	user := &model.User{Email: "admin@dealer.test", PasswordHash: "hash", Name: "Admin", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(user))

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(user.ID, at))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, at.Equal(*found.LastLoginAt))

	require.NoError(t, repo.Delete(user.ID))
	gone, err := repo.FindByID(user.ID)
	assert.NoError(t, err)
	assert.Nil(t, gone)

	users, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, users)
}
