package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// WithTx returns a repository bound to tx
	WithTx(tx *gorm.DB) CartRepository
	Create(cartItem *model.CartItem) error
	FindByUserID(userID uuid.UUID) ([]model.CartItem, error)
	FindByID(id uuid.UUID) (*model.CartItem, error)
	FindByUserAndProduct(userID, productID uuid.UUID) (*model.CartItem, error)
	Update(cartItem *model.CartItem) error
	Delete(id uuid.UUID) error
	DeleteByUserID(userID uuid.UUID) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) Create(cartItem *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"user_id":    cartItem.UserID,
		"product_id": cartItem.ProductID,
		"quantity":   cartItem.Quantity,
	})

	if err := r.db.Omit("User", "Product").Create(cartItem).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"user_id":    cartItem.UserID,
			"product_id": cartItem.ProductID,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
	})
	return nil
}

// FindByUserID returns the user's cart lines with their products, oldest first
func (r *cartRepository) FindByUserID(userID uuid.UUID) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cartItems []model.CartItem
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(cartItems),
	})
	return cartItems, nil
}

// FindByID locks the row for update when running inside a transaction
func (r *cartRepository) FindByID(id uuid.UUID) (*model.CartItem, error) {
	logger.Debug("Finding cart item by ID in database", map[string]interface{}{
		"cart_item_id": id,
	})

	var cartItem model.CartItem
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&cartItem).Error
	if err != nil {
		logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return nil, err
	}

	logger.Debug("Cart item found by ID in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
	})
	return &cartItem, nil
}

func (r *cartRepository) FindByUserAndProduct(userID, productID uuid.UUID) (*model.CartItem, error) {
	logger.Debug("Finding cart item by user and product in database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	var cartItem model.CartItem
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&cartItem).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart item by user and product in database", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart item found by user and product in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
	})
	return &cartItem, nil
}

func (r *cartRepository) Update(cartItem *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"quantity":     cartItem.Quantity,
	})

	if err := r.db.Omit("User", "Product").Save(cartItem).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": cartItem.ID,
		})
		return err
	}

	logger.Debug("Cart item updated in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
	})
	return nil
}

func (r *cartRepository) Delete(id uuid.UUID) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Where("id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_item_id": id,
	})
	return nil
}

func (r *cartRepository) DeleteByUserID(userID uuid.UUID) error {
	logger.Debug("Clearing cart in database", map[string]interface{}{
		"user_id": userID,
	})

	result := r.db.Where("user_id = ?", userID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to clear cart in database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return result.Error
	}

	logger.Debug("Cart cleared in database", map[string]interface{}{
		"user_id": userID,
		"removed": result.RowsAffected,
	})
	return nil
}
