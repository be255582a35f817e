package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"image_url" binding:"required"`
	Stock       *int             `json:"stock" binding:"required,gte=0"`
	Sizes       []string         `json:"sizes"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1"`
	Description *string          `json:"description" binding:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,min=1"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,min=1"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Sizes       *[]string        `json:"sizes"`
}

// ListProducts lists the catalog
// GET /api/v1/products?category=&sortBy=&sortOrder=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.ListProductsOptions{
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSortBy):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        apperrors.ValidationInvalidSort,
				"message":      "Unknown sortBy value",
				"valid_values": service.SortFields,
			})
		case errors.Is(err, service.ErrInvalidSortOrder):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        apperrors.ValidationInvalidSort,
				"message":      "Unknown sortOrder value",
				"valid_values": []string{"asc", "desc"},
			})
		default:
			log.Error("Failed to list products", err)
			apperrors.InternalError(c, "Failed to list products", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// SearchProducts runs a full-text catalog search
// GET /api/v1/products/search?q=&limit=
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	products, err := ctrl.productService.SearchProducts(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			apperrors.BadRequest(c, apperrors.ValidationRequired, "Query parameter q is required")
			return
		}
		middleware.GetLoggerFromContext(c).Error("Product search failed", err)
		apperrors.InternalError(c, "Failed to search products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns a product with its reviews
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		apperrors.InternalError(c, "Failed to load product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// CreateProduct adds a product to the catalog
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Stock:       *req.Stock,
		Sizes:       req.Sizes,
	})
	if err != nil {
		respondProductWriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct applies a partial update
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, service.ProductUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
	})
	if err != nil {
		respondProductWriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct removes a product with its reviews and cart lines
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondProductWriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

func respondProductWriteError(c *gin.Context, err error) {
	var sizeErr *service.SizeValidationError
	switch {
	case errors.As(err, &sizeErr):
		allowed := sizeErr.Allowed
		if allowed == nil {
			allowed = []string{}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         apperrors.ValidationInvalidSizes,
			"message":       "Sizes are not valid for category " + sizeErr.Category,
			"valid_sizes":   allowed,
			"invalid_sizes": sizeErr.Invalid,
		})
	case errors.Is(err, service.ErrInvalidPrice):
		apperrors.RespondWithValidationError(c, map[string]string{"price": "must be greater than 0"})
	case errors.Is(err, service.ErrInvalidStock):
		apperrors.RespondWithValidationError(c, map[string]string{"stock": "must be greater than or equal to 0"})
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	default:
		middleware.GetLoggerFromContext(c).Error("Product write failed", err)
		apperrors.ParseAndRespond(c, err, "product")
	}
}
