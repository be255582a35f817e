package db

import (
	"errors"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.Review{},
		&model.CartItem{},
		&model.SupportTicket{},
	}
}

// Migrate syncs the schema with the models
func Migrate(db *gorm.DB) error {
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

// SeedAdmin creates the initial admin account when it does not exist yet.
// An existing account with the same email is left untouched.
func SeedAdmin(db *gorm.DB, cfg config.AdminSeedConfig) (*model.User, error) {
	var existing model.User
	err := db.Where("email = ?", cfg.Email).First(&existing).Error
	if err == nil {
		logger.Info("Admin account already exists, skipping...", map[string]interface{}{
			"email": cfg.Email,
			"role":  existing.Role,
		})
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up admin account", err)
		return nil, err
	}

	hash, err := util.HashPassword(cfg.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.User{
		Email:        cfg.Email,
		PasswordHash: hash,
		Name:         cfg.Name,
		Phone:        cfg.Phone,
		Role:         model.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		logger.Error("Failed to create admin account", err, map[string]interface{}{
			"email": cfg.Email,
		})
		return nil, err
	}

	logger.Info("Admin account seeded", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return admin, nil
}
