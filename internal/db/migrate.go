package db

import (
	"errors"

	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/ikkim/dealer-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Vehicle{},
		&model.Customer{},
		&model.Sale{},
	}
}

// Migrate creates or updates the schema on the global connection.
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedAdmin creates the initial administrator when configured and absent.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Email == "" {
		logger.Debug("No admin account configured, skipping seed")
		return nil
	}

	email := model.NormalizeEmail(cfg.Email)
	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info("Admin account already exists, skipping seed", map[string]interface{}{
			"email": email,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up admin account", err)
		return err
	}

	hash, err := util.HashNewPassword(cfg.Password)
	if err != nil {
		logger.Error("Refusing to seed admin account", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         cfg.Name,
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Error("Failed to seed admin account", err)
		return err
	}

	logger.Info("Admin account seeded", map[string]interface{}{
		"user_id": admin.ID,
		"email":   email,
	})
	return nil
}
