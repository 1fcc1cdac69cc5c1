package repository

import (
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserRepository stores staff accounts. Lookups return nil, nil when absent.
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	TouchLastLogin(id uint, at time.Time) error
	List() ([]model.User, error)
	Delete(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", model.NormalizeEmail(email)).First(&user).Error
	if absent(err) {
		logger.Debug("User not found by email", map[string]interface{}{
			"email": email,
		})
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) TouchLastLogin(id uint, at time.Time) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Update("last_login_at", at).Error; err != nil {
		logger.Error("Failed to record last login", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) List() ([]model.User, error) {
	var users []model.User
	if err := r.db.Order("email ASC").Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.User{}, id).Error; err != nil {
		logger.Error("Failed to delete user in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}
