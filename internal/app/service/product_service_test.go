package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeIndex struct {
	indexed map[uuid.UUID]bool
	results []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: make(map[uuid.UUID]bool)}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *model.Product) error {
	f.indexed[p.ID] = true
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]uuid.UUID, error) {
	return f.results, f.err
}

func setupProductServiceTest(t *testing.T) (ProductService, *gorm.DB) {
	testDB := setupTestDB(t)
	return NewProductService(repository.NewProductRepository(testDB), nil, nil, events.NoopPublisher{}), testDB
}

func TestProductService_ListProducts_SQLSorts(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()

	createProduct(t, testDB, "Boots", model.CategoryFootwear, "120.00", 1)
	createProduct(t, testDB, "Anorak", model.CategoryClothing, "80.00", 1)
	createProduct(t, testDB, "Cap", model.CategoryClothing, "15.50", 1)

	t.Run("Default is name ascending", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, ListProductsOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Anorak", "Boots", "Cap"}, productNames(products))
	})

	t.Run("Price ascending is non-decreasing", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "price", SortOrder: "asc"})
		require.NoError(t, err)
		for i := 1; i < len(products); i++ {
			assert.True(t, products[i-1].Price.LessThanOrEqual(products[i].Price))
		}
	})

	t.Run("Category filter", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, ListProductsOptions{Category: model.CategoryFootwear})
		require.NoError(t, err)
		assert.Equal(t, []string{"Boots"}, productNames(products))
	})

	t.Run("Unknown sort field", func(t *testing.T) {
		_, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "popularity"})
		assert.ErrorIs(t, err, ErrInvalidSortBy)
	})

	t.Run("Unknown sort order", func(t *testing.T) {
		_, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "price", SortOrder: "sideways"})
		assert.ErrorIs(t, err, ErrInvalidSortOrder)
	})
}

func TestProductService_ListProducts_Rating(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()
	author := createUser(t, testDB, "author@example.com", model.RoleUser)

	high := createProduct(t, testDB, "High", model.CategoryClothing, "10.00", 1)
	tiedMany := createProduct(t, testDB, "TiedMany", model.CategoryClothing, "10.00", 1)
	tiedFew := createProduct(t, testDB, "TiedFew", model.CategoryClothing, "10.00", 1)
	createProduct(t, testDB, "Unrated", model.CategoryClothing, "10.00", 1)

	createReview(t, testDB, high.ID, author.ID, 5)
	createReview(t, testDB, tiedMany.ID, author.ID, 4)
	createReview(t, testDB, tiedMany.ID, author.ID, 4)
	createReview(t, testDB, tiedFew.ID, author.ID, 4)

	desc, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "rating", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "TiedMany", "TiedFew", "Unrated"}, productNames(desc))
	assert.Equal(t, 2, desc[1].ReviewCount)
	assert.InDelta(t, 4.0, desc[1].AverageRating, 0.001)

	asc, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "rating", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Unrated", "TiedFew", "TiedMany", "High"}, productNames(asc))
}

func TestProductService_ListProducts_Size(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()

	createProduct(t, testDB, "Large", model.CategoryClothing, "10.00", 1, "XL", "l")
	createProduct(t, testDB, "Small", model.CategoryClothing, "10.00", 1, "m", "S")
	createProduct(t, testDB, "Unsized", model.CategoryClothing, "10.00", 1, "ONE-SIZE")
	createProduct(t, testDB, "Shoe", model.CategoryFootwear, "10.00", 1, "44", "38")

	asc, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "size", SortOrder: "asc"})
	require.NoError(t, err)
	// S=1, L=3, "38"=2
	assert.Equal(t, []string{"Small", "Shoe", "Large", "Unsized"}, productNames(asc))

	desc, err := svc.ListProducts(ctx, ListProductsOptions{SortBy: "size", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Large", "Shoe", "Small", "Unsized"}, productNames(desc))
}

func TestProductService_GetProduct(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()
	author := createUser(t, testDB, "author@example.com", model.RoleUser)
	product := createProduct(t, testDB, "Parka", model.CategoryClothing, "150.00", 3, "M", "XS")
	createReview(t, testDB, product.ID, author.ID, 2)
	createReview(t, testDB, product.ID, author.ID, 4)

	detail, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Parka", detail.Name)
	assert.Equal(t, model.StringList{"M", "XS"}, detail.Sizes)
	assert.Equal(t, 2, detail.ReviewCount)
	assert.InDelta(t, 3.0, detail.AverageRating, 0.001)
	require.Len(t, detail.Reviews, 2)
	assert.Equal(t, author.Name, detail.Reviews[0].Author.Name)

	_, err = svc.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_CreateProduct(t *testing.T) {
	svc, _ := setupProductServiceTest(t)
	ctx := context.Background()

	valid := ProductInput{
		Name:        "Runner",
		Description: "Light trainer",
		Price:       decimal.RequireFromString("89.99"),
		Category:    model.CategoryFootwear,
		ImageURL:    "https://example.com/runner.jpg",
		Stock:       4,
		Sizes:       []string{"42", "38", "40"},
	}

	t.Run("Valid product keeps size order", func(t *testing.T) {
		product, err := svc.CreateProduct(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, model.StringList{"42", "38", "40"}, product.Sizes)
	})

	t.Run("Invalid sizes for category", func(t *testing.T) {
		input := valid
		input.Category = model.CategoryClothing
		input.Sizes = []string{"m", "XXXL", "42"}

		_, err := svc.CreateProduct(ctx, input)
		assert.ErrorIs(t, err, ErrInvalidSizes)

		var sizeErr *SizeValidationError
		require.True(t, errors.As(err, &sizeErr))
		assert.Equal(t, []string{"XXXL", "42"}, sizeErr.Invalid)
		assert.Equal(t, model.ClothingSizes, sizeErr.Allowed)
	})

	t.Run("Other categories accept any size", func(t *testing.T) {
		input := valid
		input.Category = "accessories"
		input.Sizes = []string{"one size"}
		_, err := svc.CreateProduct(ctx, input)
		assert.NoError(t, err)
	})

	t.Run("Non-positive price", func(t *testing.T) {
		input := valid
		input.Price = decimal.Zero
		_, err := svc.CreateProduct(ctx, input)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("Negative stock", func(t *testing.T) {
		input := valid
		input.Stock = -1
		_, err := svc.CreateProduct(ctx, input)
		assert.ErrorIs(t, err, ErrInvalidStock)
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()
	product := createProduct(t, testDB, "Tee", model.CategoryClothing, "20.00", 5, "S", "M")

	stock := 9
	updated, err := svc.UpdateProduct(ctx, product.ID, ProductUpdateInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, "Tee", updated.Name)

	// Existing letter sizes are invalid once the product becomes footwear
	category := model.CategoryFootwear
	_, err = svc.UpdateProduct(ctx, product.ID, ProductUpdateInput{Category: &category})
	assert.ErrorIs(t, err, ErrInvalidSizes)

	sizes := []string{"40"}
	updated, err = svc.UpdateProduct(ctx, product.ID, ProductUpdateInput{Category: &category, Sizes: &sizes})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryFootwear, updated.Category)

	_, err = svc.UpdateProduct(ctx, uuid.New(), ProductUpdateInput{Stock: &stock})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	svc, testDB := setupProductServiceTest(t)
	ctx := context.Background()
	product := createProduct(t, testDB, "Gone", model.CategoryClothing, "20.00", 5)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, product.ID), ErrProductNotFound)
}

func TestProductService_SearchProducts(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()
	repo := repository.NewProductRepository(testDB)

	runner := createProduct(t, testDB, "Trail Runner", model.CategoryFootwear, "130.00", 1)
	jacket := createProduct(t, testDB, "Rain Jacket", model.CategoryClothing, "90.00", 1)

	t.Run("Empty query", func(t *testing.T) {
		svc := NewProductService(repo, nil, nil, nil)
		_, err := svc.SearchProducts(ctx, "  ", 0)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("Database fallback", func(t *testing.T) {
		svc := NewProductService(repo, nil, nil, nil)
		products, err := svc.SearchProducts(ctx, "runner", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Trail Runner"}, productNames(products))
	})

	t.Run("Index results keep relevance order", func(t *testing.T) {
		index := newFakeIndex()
		index.results = []uuid.UUID{jacket.ID, runner.ID}
		svc := NewProductService(repo, nil, index, nil)

		products, err := svc.SearchProducts(ctx, "anything", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rain Jacket", "Trail Runner"}, productNames(products))
	})

	t.Run("Index failure falls back to database", func(t *testing.T) {
		index := newFakeIndex()
		index.err = errors.New("cluster unavailable")
		svc := NewProductService(repo, nil, index, nil)

		products, err := svc.SearchProducts(ctx, "jacket", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rain Jacket"}, productNames(products))
	})
}

func TestProductService_IndexesWrites(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()
	index := newFakeIndex()
	svc := NewProductService(repository.NewProductRepository(testDB), nil, index, nil)

	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:        "Beanie",
		Description: "Warm",
		Price:       decimal.RequireFromString("12.00"),
		Category:    model.CategoryClothing,
		ImageURL:    "https://example.com/beanie.jpg",
	})
	require.NoError(t, err)
	assert.True(t, index.indexed[product.ID])

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))
	assert.False(t, index.indexed[product.ID])
}

func TestProductService_Cache(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client, err := redis.Connect(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cache := redis.NewCache(client, "catalog", time.Minute)
	svc := NewProductService(repository.NewProductRepository(testDB), cache, nil, nil)

	product := createProduct(t, testDB, "Cached", model.CategoryClothing, "30.00", 2, "M")

	products, err := svc.ListProducts(ctx, ListProductsOptions{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, mr.Exists("catalog:list::name:asc"))

	_, err = svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:product:"+product.ID.String()))

	// A write made behind the service's back is hidden by the cache
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", product.ID).Update("name", "Renamed").Error)
	detail, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", detail.Name)

	// Any mutation through the service drops every catalog key
	stock := 7
	_, err = svc.UpdateProduct(ctx, product.ID, ProductUpdateInput{Stock: &stock})
	require.NoError(t, err)
	assert.False(t, mr.Exists("catalog:list::name:asc"))

	detail, err = svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", detail.Name)
	assert.Equal(t, 7, detail.Stock)
}
