package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   service.AuthService
}

type fakePresigner struct{}

func (fakePresigner) PresignProductImage(_ context.Context, filename, contentType string) (*storage.PresignedUpload, error) {
	if !storage.IsImageContentType(contentType) {
		return nil, storage.ErrUnsupportedContentType
	}
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.example.com/products/" + filename + "?X-Amz-Signature=sig",
		FileURL:   "https://bucket.example.com/products/" + filename,
		Key:       "products/" + filename,
	}, nil
}

// setupControllerTest mounts every handler on the same paths the server uses
func setupControllerTest(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	apperrors.RegisterJSONFieldNames()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)

	authService := service.NewAuthService(userRepo, testSecret, time.Hour)
	userService := service.NewUserService(userRepo, productRepo, nil)
	productService := service.NewProductService(productRepo, nil, nil, nil)
	reviewService := service.NewReviewService(repository.NewReviewRepository(testDB), productRepo, productService)
	cartService := service.NewCartService(testDB, repository.NewCartRepository(testDB), productRepo)
	ticketService := service.NewSupportTicketService(testDB, repository.NewSupportTicketRepository(testDB), userRepo, nil, nil)

	authCtrl := NewAuthController(authService)
	userCtrl := NewUserController(userService)
	productCtrl := NewProductController(productService)
	reviewCtrl := NewReviewController(reviewService)
	cartCtrl := NewCartController(cartService)
	supportCtrl := NewSupportController(ticketService)
	adminCtrl := NewAdminController(userService)
	uploadCtrl := NewUploadController(fakePresigner{})

	authMiddleware := middleware.NewAuthMiddleware(testSecret, userRepo)
	authenticated := authMiddleware.Authenticate()

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	v1 := router.Group("/api/v1")

	v1.POST("/auth/register", authCtrl.Register)
	v1.POST("/auth/login", authCtrl.Login)
	v1.GET("/auth/me", authenticated, authCtrl.GetMe)

	v1.GET("/products", productCtrl.ListProducts)
	v1.GET("/products/search", productCtrl.SearchProducts)
	v1.GET("/products/:id", productCtrl.GetProduct)
	v1.GET("/products/:id/reviews", reviewCtrl.ListReviews)
	v1.POST("/products/:id/reviews", authenticated, reviewCtrl.CreateReview)

	cart := v1.Group("/cart", authenticated)
	cart.GET("", cartCtrl.GetCart)
	cart.POST("", cartCtrl.AddToCart)
	cart.PUT("/:id", cartCtrl.UpdateCartItem)
	cart.DELETE("/:id", cartCtrl.RemoveFromCart)
	cart.DELETE("", cartCtrl.ClearCart)

	support := v1.Group("/support", authenticated)
	support.POST("/tickets", supportCtrl.CreateTicket)
	support.GET("/tickets", supportCtrl.ListMyTickets)
	support.GET("/tickets/:id", supportCtrl.GetTicket)
	support.PATCH("/tickets/:id/status", supportCtrl.UpdateTicketStatus)
	support.GET("/users/:userId/tickets", supportCtrl.ListUserTickets)

	users := v1.Group("/users", authenticated)
	users.GET("/profile", userCtrl.GetProfile)
	users.PUT("/profile", userCtrl.UpdateProfile)
	users.PUT("/profile/password", userCtrl.ChangePassword)
	users.GET("/favorites", userCtrl.ListFavorites)
	users.POST("/favorites", userCtrl.AddFavorite)
	users.DELETE("/favorites/:productId", userCtrl.RemoveFavorite)
	users.DELETE("/favorites", userCtrl.ClearFavorites)

	admin := v1.Group("/admin", authenticated, authMiddleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", adminCtrl.ListUsers)
	admin.GET("/users/banned", adminCtrl.ListBannedUsers)
	admin.PATCH("/users/:id/block", adminCtrl.BlockUser)
	admin.PATCH("/users/:id/unblock", adminCtrl.UnblockUser)
	admin.PATCH("/users/:id/role", adminCtrl.ChangeRole)
	admin.POST("/products", productCtrl.CreateProduct)
	admin.PUT("/products/:id", productCtrl.UpdateProduct)
	admin.DELETE("/products/:id", productCtrl.DeleteProduct)
	admin.DELETE("/reviews/:id", reviewCtrl.DeleteReview)
	admin.GET("/support/tickets", supportCtrl.ListAllTickets)
	admin.PATCH("/support/tickets/:id/status", supportCtrl.UpdateTicketStatus)
	admin.DELETE("/support/tickets/:id", supportCtrl.DeleteTicket)
	admin.POST("/uploads/product-image", uploadCtrl.PresignProductImage)

	return &testEnv{router: router, db: testDB, auth: authService}
}

// createUser registers a user directly and returns it with a valid token
func (e *testEnv) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	user := &model.User{Email: email, PasswordHash: hash, Name: "User " + email, Role: role}
	require.NoError(t, e.db.Create(user).Error)

	token, err := util.GenerateToken(user.ID, user.Email, string(user.Role), testSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createProduct(t *testing.T, name, category, price string, stock int, sizes ...string) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		ImageURL:    "https://example.com/" + name + ".jpg",
		Stock:       stock,
		Sizes:       model.StringList(sizes),
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}
