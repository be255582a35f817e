package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/metrics"
	"github.com/ikkim/storefront-backend/internal/search"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidSortBy    = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrEmptyQuery       = errors.New("search query is required")
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidStock     = errors.New("stock cannot be negative")
	ErrInvalidSizes     = errors.New("invalid sizes for category")
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SortFields lists the accepted values of sortBy
var SortFields = []string{"price", "name", "category", "rating", "size"}

// SizeValidationError reports the labels rejected for a category
type SizeValidationError struct {
	Category string
	Invalid  []string
	Allowed  []string
}

func (e *SizeValidationError) Error() string {
	return fmt.Sprintf("invalid sizes for category %s: %s", e.Category, strings.Join(e.Invalid, ", "))
}

func (e *SizeValidationError) Is(target error) bool {
	return target == ErrInvalidSizes
}

// Cache is the read-through store used for catalog reads
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateAll(ctx context.Context) error
}

type ListProductsOptions struct {
	Category  string
	SortBy    string
	SortOrder string
}

// ProductDetail is a product with its reviews flattened for the wire
type ProductDetail struct {
	model.Product
	Reviews []model.ReviewView `json:"reviews"`
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Stock       int
	Sizes       []string
}

// ProductUpdateInput carries a partial update; nil fields are kept
type ProductUpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	ImageURL    *string
	Stock       *int
	Sizes       *[]string
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ListProductsOptions) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	InvalidateCache(ctx context.Context)
}

type productService struct {
	productRepo repository.ProductRepository
	cache       Cache
	index       search.Index
	publisher   events.Publisher
}

// NewProductService wires the catalog. cache and index may be nil, in which
// case reads go straight to the database and search falls back to SQL.
func NewProductService(
	productRepo repository.ProductRepository,
	cache Cache,
	index search.Index,
	publisher events.Publisher,
) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       cache,
		index:       index,
		publisher:   publisher,
	}
}

func parseListOptions(opts ListProductsOptions) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Category:      strings.TrimSpace(opts.Category),
		SortBy:        repository.ProductSortName,
		SortAscending: true,
	}

	if opts.SortBy != "" {
		valid := false
		for _, f := range SortFields {
			if f == opts.SortBy {
				valid = true
				break
			}
		}
		if !valid {
			return filter, ErrInvalidSortBy
		}
		filter.SortBy = repository.ProductSort(opts.SortBy)
	}

	switch strings.ToLower(opts.SortOrder) {
	case "", "asc":
	case "desc":
		filter.SortAscending = false
	default:
		return filter, ErrInvalidSortOrder
	}

	return filter, nil
}

func listCacheKey(filter repository.ProductFilter) string {
	order := "desc"
	if filter.SortAscending {
		order = "asc"
	}
	return fmt.Sprintf("list:%s:%s:%s", filter.Category, filter.SortBy, order)
}

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (s *productService) cacheGet(ctx context.Context, kind, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, result)
	if err != nil {
		logger.Warn("Catalog cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	metrics.CacheResult(kind, hit)
	return hit
}

func (s *productService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logger.Warn("Catalog cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *productService) ListProducts(ctx context.Context, opts ListProductsOptions) ([]model.Product, error) {
	filter, err := parseListOptions(opts)
	if err != nil {
		return nil, err
	}

	key := listCacheKey(filter)
	var cached []model.Product
	if s.cacheGet(ctx, "product_list", key, &cached) {
		return cached, nil
	}

	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachRatings(products); err != nil {
		return nil, err
	}
	applyInMemorySort(products, filter.SortBy, filter.SortAscending)

	s.cacheSet(ctx, key, products)

	logger.Debug("Products listed", map[string]interface{}{
		"category": filter.Category,
		"sort_by":  filter.SortBy,
		"count":    len(products),
	})
	return products, nil
}

func (s *productService) attachRatings(products []model.Product) error {
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	stats, err := s.productRepo.RatingStats(ids)
	if err != nil {
		return err
	}
	for i := range products {
		if st, ok := stats[products[i].ID]; ok {
			products[i].AverageRating = st.Average
			products[i].ReviewCount = st.Count
		}
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	key := productCacheKey(id)
	var cached ProductDetail
	if s.cacheGet(ctx, "product_detail", key, &cached) {
		return &cached, nil
	}

	product, err := s.productRepo.FindByIDWithReviews(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	product.ApplyRatingStats()

	detail := &ProductDetail{Reviews: make([]model.ReviewView, 0, len(product.Reviews))}
	for i := range product.Reviews {
		detail.Reviews = append(detail.Reviews, product.Reviews[i].View())
	}
	product.Reviews = nil
	detail.Product = *product

	s.cacheSet(ctx, key, detail)
	return detail, nil
}

// SearchProducts asks the search index first and falls back to a SQL
// substring match when no index is configured or the index fails.
func (s *productService) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	var products []model.Product
	if s.index != nil {
		ids, err := s.index.Search(ctx, query, limit)
		if err == nil {
			products, err = s.productRepo.FindByIDs(ids)
			if err != nil {
				return nil, err
			}
		} else {
			logger.Warn("Search index query failed, falling back to database", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
		}
	}
	if products == nil {
		var err error
		products, err = s.productRepo.Search(query, limit)
		if err != nil {
			return nil, err
		}
	}

	if err := s.attachRatings(products); err != nil {
		return nil, err
	}
	return products, nil
}

func normalizeSizes(sizes []string) model.StringList {
	out := make(model.StringList, 0, len(sizes))
	for _, s := range sizes {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validateProduct(p *model.Product) error {
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	invalid, allowed := model.InvalidSizes(p.Category, p.Sizes)
	if len(invalid) > 0 {
		return &SizeValidationError{Category: p.Category, Invalid: invalid, Allowed: allowed}
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Stock:       input.Stock,
		Sizes:       normalizeSizes(input.Sizes),
	}

	if err := validateProduct(product); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"name":  product.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"category":   product.Category,
	})

	s.afterWrite(ctx, product, events.ProductCreated)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Sizes != nil {
		product.Sizes = normalizeSizes(*input.Sizes)
	}

	// Sizes are checked against the resulting category
	if err := validateProduct(product); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})

	s.afterWrite(ctx, product, events.ProductUpdated)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})

	s.InvalidateCache(ctx)
	if s.index != nil {
		if err := s.index.DeleteProduct(ctx, id); err != nil {
			logger.Warn("Failed to remove product from search index", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
		}
	}
	events.PublishAsync(s.publisher, events.New(events.ProductDeleted, id.String(), map[string]interface{}{
		"product_id": id,
	}))
	return nil
}

func (s *productService) afterWrite(ctx context.Context, product *model.Product, eventType string) {
	s.InvalidateCache(ctx)
	if s.index != nil {
		if err := s.index.IndexProduct(ctx, product); err != nil {
			logger.Warn("Failed to index product", map[string]interface{}{
				"product_id": product.ID,
				"error":      err.Error(),
			})
		}
	}
	events.PublishAsync(s.publisher, events.New(eventType, product.ID.String(), product))
}

// InvalidateCache drops every cached catalog entry
func (s *productService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		logger.Error("Failed to invalidate catalog cache", err)
	}
}
