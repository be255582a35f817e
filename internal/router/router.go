package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/metrics"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// Controllers groups every HTTP handler set the router mounts. Upload and
// Notification may be nil when their backends are not configured.
type Controllers struct {
	Auth         *controller.AuthController
	User         *controller.UserController
	Product      *controller.ProductController
	Review       *controller.ReviewController
	Cart         *controller.CartController
	Support      *controller.SupportController
	Admin        *controller.AdminController
	Upload       *controller.UploadController
	Notification *controller.NotificationController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	authLimiter    *middleware.RateLimiter
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		authLimiter:    authLimiter,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	apperrors.RegisterJSONFieldNames()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.NoRoute(func(c *gin.Context) {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
	})

	router.GET("/health", r.health)
	router.GET("/metrics", metrics.Handler())

	ctrl := r.controllers
	authenticated := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.health)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authLimiter.Middleware(), ctrl.Auth.Register)
			auth.POST("/login", r.authLimiter.Middleware(), ctrl.Auth.Login)
			auth.GET("/me", authenticated, ctrl.Auth.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", ctrl.Product.ListProducts)
			products.GET("/search", ctrl.Product.SearchProducts)
			products.GET("/:id", ctrl.Product.GetProduct)
			products.GET("/:id/reviews", ctrl.Review.ListReviews)
			products.POST("/:id/reviews", authenticated, ctrl.Review.CreateReview)
		}

		cart := v1.Group("/cart", authenticated)
		{
			cart.GET("", ctrl.Cart.GetCart)
			cart.POST("", ctrl.Cart.AddToCart)
			cart.PUT("/:id", ctrl.Cart.UpdateCartItem)
			cart.DELETE("/:id", ctrl.Cart.RemoveFromCart)
			cart.DELETE("", ctrl.Cart.ClearCart)
		}

		support := v1.Group("/support", authenticated)
		{
			support.POST("/tickets", ctrl.Support.CreateTicket)
			support.GET("/tickets", ctrl.Support.ListMyTickets)
			support.GET("/tickets/:id", ctrl.Support.GetTicket)
			support.PATCH("/tickets/:id/status", ctrl.Support.UpdateTicketStatus)
			support.GET("/users/:userId/tickets", ctrl.Support.ListUserTickets)
		}

		users := v1.Group("/users", authenticated)
		{
			users.GET("/profile", ctrl.User.GetProfile)
			users.PUT("/profile", ctrl.User.UpdateProfile)
			users.PUT("/profile/password", ctrl.User.ChangePassword)
			users.GET("/favorites", ctrl.User.ListFavorites)
			users.POST("/favorites", ctrl.User.AddFavorite)
			users.DELETE("/favorites/:productId", ctrl.User.RemoveFavorite)
			users.DELETE("/favorites", ctrl.User.ClearFavorites)
		}

		admin := v1.Group("/admin", authenticated, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/users", ctrl.Admin.ListUsers)
			admin.GET("/users/banned", ctrl.Admin.ListBannedUsers)
			admin.PATCH("/users/:id/block", ctrl.Admin.BlockUser)
			admin.PATCH("/users/:id/unblock", ctrl.Admin.UnblockUser)
			admin.PATCH("/users/:id/role", ctrl.Admin.ChangeRole)

			admin.POST("/products", ctrl.Product.CreateProduct)
			admin.PUT("/products/:id", ctrl.Product.UpdateProduct)
			admin.DELETE("/products/:id", ctrl.Product.DeleteProduct)

			admin.DELETE("/reviews/:id", ctrl.Review.DeleteReview)

			admin.GET("/support/tickets", ctrl.Support.ListAllTickets)
			admin.PATCH("/support/tickets/:id/status", ctrl.Support.UpdateTicketStatus)
			admin.DELETE("/support/tickets/:id", ctrl.Support.DeleteTicket)

			if ctrl.Upload != nil {
				admin.POST("/uploads/product-image", ctrl.Upload.PresignProductImage)
			}
		}

		if ctrl.Notification != nil {
			v1.GET("/ws", authenticated, ctrl.Notification.Connect)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": r.config.Server.Environment,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
