package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/util"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type AddFavoriteRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// GetProfile returns the caller's profile
// GET /api/v1/users/profile
func (ctrl *UserController) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.userService.GetProfile(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateProfile changes name, email or phone
// PUT /api/v1/users/profile
func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.UpdateProfile(userID, service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(user),
	})
}

// ChangePassword replaces the password after checking the current one
// PUT /api/v1/users/profile/password
func (ctrl *UserController) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.userService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// ListFavorites returns the caller's favorite products
// GET /api/v1/users/favorites
func (ctrl *UserController) ListFavorites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	products, err := ctrl.userService.ListFavorites(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// AddFavorite stores a product in the favorites list
// POST /api/v1/users/favorites
func (ctrl *UserController) AddFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.AddFavorite(userID, uuid.MustParse(req.ProductID))
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorite_product_ids": user.FavoriteProductIDs,
	})
}

// RemoveFavorite drops a product from the favorites list
// DELETE /api/v1/users/favorites/:productId
func (ctrl *UserController) RemoveFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	user, err := ctrl.userService.RemoveFavorite(userID, productID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorite_product_ids": user.FavoriteProductIDs,
	})
}

// ClearFavorites empties the favorites list
// DELETE /api/v1/users/favorites
func (ctrl *UserController) ClearFavorites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := ctrl.userService.ClearFavorites(userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Favorites cleared",
	})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.BadRequest(c, apperrors.AuthEmailAlreadyExists, "Email is already registered")
	case errors.Is(err, service.ErrWrongPassword):
		apperrors.BadRequest(c, apperrors.AuthWrongPassword, "Current password is incorrect")
	case errors.Is(err, util.ErrPasswordTooShort):
		apperrors.RespondWithValidationError(c, map[string]string{"new_password": "must be at least 6 characters"})
	case errors.Is(err, service.ErrAdminProtected):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminProtected, "Admin accounts cannot be blocked or demoted")
	case errors.Is(err, service.ErrInvalidRole):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRole, "Role must be USER or ADMIN")
	default:
		middleware.GetLoggerFromContext(c).Error("User operation failed", err)
		apperrors.ParseAndRespond(c, err, "user")
	}
}
