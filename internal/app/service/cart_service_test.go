package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB := setupTestDB(t)
	svc := NewCartService(
		testDB,
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
	)

	user := createUser(t, testDB, "buyer@example.com", model.RoleUser)
	product := createProduct(t, testDB, "Hoodie", model.CategoryClothing, "45.50", 5, "M")
	return svc, testDB, user, product
}

func TestCartService_AddToCart(t *testing.T) {
	svc, _, user, product := setupCartServiceTest(t)

	t.Run("Invalid quantity", func(t *testing.T) {
		_, err := svc.AddToCart(user.ID, product.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := svc.AddToCart(user.ID, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("Quantities accumulate on one line", func(t *testing.T) {
		first, err := svc.AddToCart(user.ID, product.ID, 2)
		require.NoError(t, err)
		second, err := svc.AddToCart(user.ID, product.ID, 3)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Quantity)
		require.NotNil(t, second.Product)
	})

	t.Run("Exceeding stock leaves the line unchanged", func(t *testing.T) {
		_, err := svc.AddToCart(user.ID, product.ID, 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)

		cart, err := svc.GetCart(user.ID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})
}

func TestCartService_AddToCart_Concurrent(t *testing.T) {
	svc, testDB, user, _ := setupCartServiceTest(t)

	// SQLite has no row locks; a single connection serializes the
	// transactions the way FOR UPDATE does on postgres.
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	addConcurrently := func(productID uuid.UUID, n int) []error {
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.AddToCart(user.ID, productID, 1)
			}(i)
		}
		wg.Wait()
		return errs
	}

	lineFor := func(productID uuid.UUID) *model.CartItem {
		var items []model.CartItem
		require.NoError(t, testDB.Where("user_id = ? AND product_id = ?", user.ID, productID).Find(&items).Error)
		require.Len(t, items, 1)
		return &items[0]
	}

	t.Run("No lost updates", func(t *testing.T) {
		product := createProduct(t, testDB, "Tee", model.CategoryClothing, "12.00", 100)

		for _, err := range addConcurrently(product.ID, 10) {
			require.NoError(t, err)
		}
		assert.Equal(t, 10, lineFor(product.ID).Quantity)
	})

	t.Run("Combined adds never pass stock", func(t *testing.T) {
		product := createProduct(t, testDB, "Cap", model.CategoryClothing, "9.00", 5)

		added, rejected := 0, 0
		for _, err := range addConcurrently(product.ID, 8) {
			switch {
			case err == nil:
				added++
			case assert.ErrorIs(t, err, ErrInsufficientStock):
				rejected++
			}
		}
		assert.Equal(t, 5, added)
		assert.Equal(t, 3, rejected)
		assert.Equal(t, 5, lineFor(product.ID).Quantity)
	})
}

func TestCartService_GetCart(t *testing.T) {
	svc, testDB, user, product := setupCartServiceTest(t)
	other := createProduct(t, testDB, "Socks", model.CategoryClothing, "4.25", 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, other.ID, 3)
	require.NoError(t, err)

	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Count)
	// 2 x 45.50 + 3 x 4.25
	assert.Equal(t, "103.75", cart.Total)

	empty, err := svc.GetCart(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, "0.00", empty.Total)
}

func TestCartService_UpdateCartItem(t *testing.T) {
	svc, testDB, user, product := setupCartServiceTest(t)
	stranger := createUser(t, testDB, "stranger@example.com", model.RoleUser)

	item, err := svc.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateCartItem(user.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = svc.UpdateCartItem(user.ID, item.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.UpdateCartItem(user.ID, item.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.UpdateCartItem(stranger.ID, item.ID, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = svc.UpdateCartItem(user.ID, uuid.New(), 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	svc, testDB, user, product := setupCartServiceTest(t)
	stranger := createUser(t, testDB, "stranger@example.com", model.RoleUser)
	other := createProduct(t, testDB, "Belt", model.CategoryClothing, "30.00", 2)

	item, err := svc.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, other.ID, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveFromCart(stranger.ID, item.ID), ErrCartItemNotFound)
	require.NoError(t, svc.RemoveFromCart(user.ID, item.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(user.ID, item.ID), ErrCartItemNotFound)

	require.NoError(t, svc.ClearCart(user.ID))
	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
