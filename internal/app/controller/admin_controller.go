package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// AdminController serves user management. Product, review and ticket admin
// routes reuse their own controllers.
type AdminController struct {
	userService service.UserService
}

func NewAdminController(userService service.UserService) *AdminController {
	return &AdminController{
		userService: userService,
	}
}

type BlockUserRequest struct {
	Reason string `json:"reason"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ListUsers lists every user, newest first
// GET /api/v1/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	users, err := ctrl.userService.ListUsers()
	if err != nil {
		apperrors.InternalError(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// ListBannedUsers lists blocked users, most recently banned first
// GET /api/v1/admin/users/banned
func (ctrl *AdminController) ListBannedUsers(c *gin.Context) {
	users, err := ctrl.userService.ListBlockedUsers()
	if err != nil {
		apperrors.InternalError(c, "Failed to list banned users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// BlockUser bans a user
// PATCH /api/v1/admin/users/:id/block
func (ctrl *AdminController) BlockUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// The body is optional; chunked requests report no length, so an empty
	// body only shows up as io.EOF
	var req BlockUserRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apperrors.RespondWithBindError(c, err)
			return
		}
	}

	user, err := ctrl.userService.BlockUser(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondUserError(c, err)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("User blocked by admin", map[string]interface{}{
		"admin_id": adminID,
		"user_id":  id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "User blocked",
		"user":    user,
	})
}

// UnblockUser lifts a ban
// PATCH /api/v1/admin/users/:id/unblock
func (ctrl *AdminController) UnblockUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.UnblockUser(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User unblocked",
		"user":    user,
	})
}

// ChangeRole sets a user's role
// PATCH /api/v1/admin/users/:id/role
func (ctrl *AdminController) ChangeRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.ChangeRole(c.Request.Context(), id, model.UserRole(req.Role))
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated",
		"user":    user,
	})
}
