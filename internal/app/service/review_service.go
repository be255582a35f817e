package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound     = errors.New("review not found")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrEmptyReviewComment = errors.New("comment is required")
)

// CatalogInvalidator drops cached catalog reads after a review changes
// a product's rating
type CatalogInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type ReviewService interface {
	CreateReview(ctx context.Context, productID, authorID uuid.UUID, rating int, comment string) (*model.Review, error)
	ListForProduct(productID uuid.UUID) ([]model.ReviewView, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	catalog     CatalogInvalidator
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	catalog CatalogInvalidator,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		catalog:     catalog,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, productID, authorID uuid.UUID, rating int, comment string) (*model.Review, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyReviewComment
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Review rejected: product not found", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	review := &model.Review{
		Rating:    rating,
		Comment:   comment,
		ProductID: productID,
		AuthorID:  authorID,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	// Reload to attach the author
	created, err := s.reviewRepo.FindByID(review.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Review created", map[string]interface{}{
		"review_id":  created.ID,
		"product_id": productID,
		"author_id":  authorID,
		"rating":     rating,
	})

	s.invalidate(ctx)
	return created, nil
}

// ListForProduct reads straight from the database, bypassing the catalog cache
func (s *reviewService) ListForProduct(productID uuid.UUID) ([]model.ReviewView, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	reviews, err := s.reviewRepo.FindByProduct(productID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, reviews[i].View())
	}
	return views, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	if err := s.reviewRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	logger.Info("Review deleted", map[string]interface{}{
		"review_id": id,
	})

	s.invalidate(ctx)
	return nil
}

func (s *reviewService) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
}
