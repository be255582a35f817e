package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// CartSummary is the user's cart with derived totals. Count is the number
// of units, not lines.
type CartSummary struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total string           `json:"total"`
}

type CartService interface {
	GetCart(userID uuid.UUID) (*CartSummary, error)
	AddToCart(userID, productID uuid.UUID, quantity int) (*model.CartItem, error)
	UpdateCartItem(userID, cartItemID uuid.UUID, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uuid.UUID) error
	ClearCart(userID uuid.UUID) error
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(userID uuid.UUID) (*CartSummary, error) {
	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.CartItem{}
	}

	total := decimal.Zero
	count := 0
	for _, item := range items {
		count += item.Quantity
		if item.Product != nil {
			total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	return &CartSummary{
		Items: items,
		Count: count,
		Total: total.StringFixed(2),
	}, nil
}

// AddToCart adds quantity units of the product, accumulating onto an
// existing line. The product and line rows stay locked from the stock
// check until the write commits.
func (s *cartService) AddToCart(userID, productID uuid.UUID, quantity int) (*model.CartItem, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var result *model.CartItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		cart := s.cartRepo.WithTx(tx)

		product, err := products.FindByIDForUpdate(productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		existing, err := cart.FindByUserAndProduct(userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if total > product.Stock {
			logger.Warn("Insufficient stock for cart add", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
				"requested":  total,
				"stock":      product.Stock,
			})
			return ErrInsufficientStock
		}

		if existing != nil {
			existing.Quantity = total
			if err := cart.Update(existing); err != nil {
				return err
			}
			result = existing
		} else {
			item := &model.CartItem{
				UserID:    userID,
				ProductID: productID,
				Quantity:  quantity,
			}
			if err := cart.Create(item); err != nil {
				return err
			}
			result = item
		}
		result.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"cart_item_id": result.ID,
		"quantity":     result.Quantity,
	})
	return result, nil
}

func (s *cartService) UpdateCartItem(userID, cartItemID uuid.UUID, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var result *model.CartItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart := s.cartRepo.WithTx(tx)

		item, err := cart.FindByID(cartItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}
		// Someone else's line looks the same as a missing one
		if item.UserID != userID {
			return ErrCartItemNotFound
		}

		product, err := s.productRepo.WithTx(tx).FindByIDForUpdate(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if quantity > product.Stock {
			return ErrInsufficientStock
		}

		item.Quantity = quantity
		if err := cart.Update(item); err != nil {
			return err
		}
		item.Product = product
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item updated", map[string]interface{}{
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})
	return result, nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uuid.UUID) error {
	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	if item.UserID != userID {
		return ErrCartItemNotFound
	}

	if err := s.cartRepo.Delete(cartItemID); err != nil {
		return err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})
	return nil
}

func (s *cartService) ClearCart(userID uuid.UUID) error {
	if err := s.cartRepo.DeleteByUserID(userID); err != nil {
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
