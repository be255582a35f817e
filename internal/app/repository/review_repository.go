package repository

import (
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	FindByID(id uuid.UUID) (*model.Review, error)
	FindByProduct(productID uuid.UUID) ([]model.Review, error)
	Delete(id uuid.UUID) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"product_id": review.ProductID,
		"author_id":  review.AuthorID,
	})

	if err := r.db.Omit("Product", "Author").Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"product_id": review.ProductID,
			"author_id":  review.AuthorID,
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id": review.ID,
	})
	return nil
}

// FindByID loads the review with its author
func (r *reviewRepository) FindByID(id uuid.UUID) (*model.Review, error) {
	logger.Debug("Finding review by ID in database", map[string]interface{}{
		"review_id": id,
	})

	var review model.Review
	if err := r.db.Preload("Author").Where("id = ?", id).First(&review).Error; err != nil {
		logger.Error("Failed to find review by ID in database", err, map[string]interface{}{
			"review_id": id,
		})
		return nil, err
	}

	logger.Debug("Review found by ID in database", map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
	})
	return &review, nil
}

// FindByProduct lists a product's reviews newest first with their authors
func (r *reviewRepository) FindByProduct(productID uuid.UUID) ([]model.Review, error) {
	logger.Debug("Finding reviews by product in database", map[string]interface{}{
		"product_id": productID,
	})

	var reviews []model.Review
	err := r.db.Preload("Author").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews by product in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Reviews found by product in database", map[string]interface{}{
		"product_id": productID,
		"count":      len(reviews),
	})
	return reviews, nil
}

func (r *reviewRepository) Delete(id uuid.UUID) error {
	logger.Debug("Deleting review from database", map[string]interface{}{
		"review_id": id,
	})

	result := r.db.Where("id = ?", id).Delete(&model.Review{})
	if result.Error != nil {
		logger.Error("Failed to delete review from database", result.Error, map[string]interface{}{
			"review_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Review deleted from database", map[string]interface{}{
		"review_id": id,
	})
	return nil
}
