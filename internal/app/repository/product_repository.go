package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductSort string

const (
	ProductSortPrice    ProductSort = "price"
	ProductSortName     ProductSort = "name"
	ProductSortCategory ProductSort = "category"
	ProductSortRating   ProductSort = "rating"
	ProductSortSize     ProductSort = "size"
)

// SQLSortable reports whether the column can be ordered by the database
func (s ProductSort) SQLSortable() bool {
	return s == ProductSortPrice || s == ProductSortName || s == ProductSortCategory
}

type ProductFilter struct {
	Category      string
	SortBy        ProductSort
	SortAscending bool
}

// RatingStats is the aggregate of a product's reviews
type RatingStats struct {
	ProductID uuid.UUID
	Average   float64
	Count     int
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	BulkCreate(products []model.Product, batchSize int) error
	FindWithFilter(filter ProductFilter) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(id uuid.UUID) (*model.Product, error)
	FindByIDWithReviews(id uuid.UUID) (*model.Product, error)
	FindByIDs(ids []uuid.UUID) ([]model.Product, error)
	Search(query string, limit int) ([]model.Product, error)
	RatingStats(ids []uuid.UUID) (map[uuid.UUID]RatingStats, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

// BulkCreate inserts products in batches of batchSize inside one transaction
func (r *productRepository) BulkCreate(products []model.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}

	logger.Debug("Bulk creating products in database", map[string]interface{}{
		"count":      len(products),
		"batch_size": batchSize,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Reviews", "CartItems").CreateInBatches(products, batchSize).Error
	})
	if err != nil {
		logger.Error("Failed to bulk create products in database", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}

	logger.Debug("Products bulk created in database", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

// FindWithFilter applies the category filter and, for SQL-sortable
// columns, the ordering. Other sorts are left to the caller.
func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":  filter.Category,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
	})

	query := r.db.Model(&model.Product{})

	if filter.Category != "" {
		query = query.Where("products.category = ?", filter.Category)
	}

	if filter.SortBy.SQLSortable() {
		direction := "DESC"
		if filter.SortAscending {
			direction = "ASC"
		}
		query = query.Order(fmt.Sprintf("products.%s %s", filter.SortBy, direction))
	}
	// Stable tiebreak for every sort
	query = query.Order("products.created_at ASC")

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(id uuid.UUID) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return &product, nil
}

// FindByIDForUpdate locks the product row until the transaction ends
func (r *productRepository) FindByIDForUpdate(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to lock product in database", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDWithReviews loads the product with reviews newest first and each
// review's author
func (r *productRepository) FindByIDWithReviews(id uuid.UUID) (*model.Product, error) {
	logger.Debug("Finding product with reviews in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("reviews.created_at DESC")
		}).
		Preload("Reviews.Author").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		logger.Error("Failed to find product with reviews in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product with reviews found in database", map[string]interface{}{
		"product_id":   product.ID,
		"review_count": len(product.Reviews),
	})
	return &product, nil
}

// FindByIDs returns the products in the order of ids; unknown ids are skipped
func (r *productRepository) FindByIDs(ids []uuid.UUID) ([]model.Product, error) {
	logger.Debug("Finding products by IDs in database", map[string]interface{}{
		"count": len(ids),
	})

	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	var found []model.Product
	if err := r.db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err)
		return nil, err
	}

	byID := make(map[uuid.UUID]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}

	logger.Debug("Products found by IDs in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search matches name or description case-insensitively
func (r *productRepository) Search(query string, limit int) ([]model.Product, error) {
	logger.Debug("Searching products in database", map[string]interface{}{
		"query": query,
		"limit": limit,
	})

	like := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	q := r.db.
		Where(`LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\'`, like, like).
		Order("products.name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		logger.Error("Failed to search products in database", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	logger.Debug("Products found by search", map[string]interface{}{
		"query": query,
		"count": len(products),
	})
	return products, nil
}

// RatingStats aggregates review ratings for the given products. Products
// without reviews are absent from the result.
func (r *productRepository) RatingStats(ids []uuid.UUID) (map[uuid.UUID]RatingStats, error) {
	stats := make(map[uuid.UUID]RatingStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	logger.Debug("Aggregating review ratings in database", map[string]interface{}{
		"product_count": len(ids),
	})

	var rows []RatingStats
	err := r.db.Model(&model.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate review ratings in database", err)
		return nil, err
	}

	for _, row := range rows {
		stats[row.ProductID] = row
	}

	logger.Debug("Review ratings aggregated", map[string]interface{}{
		"rated_products": len(stats),
	})
	return stats, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Omit("Reviews", "CartItems").Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

// Delete removes the product with its reviews and cart lines
func (r *productRepository) Delete(id uuid.UUID) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
