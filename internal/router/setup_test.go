package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret"

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	hub    *ws.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			GinMode:     gin.TestMode,
			Environment: "test",
		},
		JWT:       config.JWTConfig{Secret: testSecret, Expiry: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://shop.example.com"}},
		RateLimit: config.RateLimitConfig{AuthPerSecond: 100, AuthBurst: 100},
	}
}

// newTestServer wires the whole application the way cmd/server does, minus
// the optional backends
func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)

	productService := service.NewProductService(productRepo, nil, nil, nil)
	userService := service.NewUserService(userRepo, productRepo, nil)

	controllers := Controllers{
		Auth:    controller.NewAuthController(service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)),
		User:    controller.NewUserController(userService),
		Product: controller.NewProductController(productService),
		Review: controller.NewReviewController(
			service.NewReviewService(repository.NewReviewRepository(testDB), productRepo, productService)),
		Cart: controller.NewCartController(
			service.NewCartService(testDB, repository.NewCartRepository(testDB), productRepo)),
		Support: controller.NewSupportController(
			service.NewSupportTicketService(testDB, repository.NewSupportTicketRepository(testDB), userRepo, hub, nil)),
		Admin:        controller.NewAdminController(userService),
		Notification: controller.NewNotificationController(hub, cfg.CORS.AllowedOrigins),
	}

	r := NewRouter(
		controllers,
		middleware.NewAuthMiddleware(cfg.JWT.Secret, userRepo),
		middleware.NewRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst),
		cfg,
	)

	return &testServer{engine: r.Setup(), db: testDB, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

// register signs a user up through the API and returns the token and user id
func (s *testServer) register(t *testing.T, email string) (token, id string) {
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "pw1234",
		"name":     "Shopper " + email,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	response := decodeBody(t, w)
	user := response["user"].(map[string]interface{})
	return response["token"].(string), user["id"].(string)
}
