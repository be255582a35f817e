package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// parseIDParam reads a UUID path parameter, answering 400 when malformed
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID answers 401 when the request carries no identity
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func currentRequester(c *gin.Context) (service.Requester, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return service.Requester{}, false
	}
	return service.Requester{ID: userID, IsAdmin: middleware.IsAdmin(c)}, true
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"phone":      user.Phone,
		"role":       user.Role,
		"is_blocked": user.IsBlocked,
	}
}
