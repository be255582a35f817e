package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrWrongPassword  = errors.New("current password is incorrect")
	ErrAdminProtected = errors.New("admin accounts cannot be blocked or demoted")
	ErrInvalidRole    = errors.New("invalid role")
)

type UpdateProfileInput struct {
	Name  *string
	Email *string
	Phone *string
}

type UserService interface {
	GetProfile(userID uuid.UUID) (*model.User, error)
	UpdateProfile(userID uuid.UUID, input UpdateProfileInput) (*model.User, error)
	ChangePassword(userID uuid.UUID, currentPassword, newPassword string) error

	ListFavorites(userID uuid.UUID) ([]model.Product, error)
	AddFavorite(userID, productID uuid.UUID) (*model.User, error)
	RemoveFavorite(userID, productID uuid.UUID) (*model.User, error)
	ClearFavorites(userID uuid.UUID) error

	ListUsers() ([]model.User, error)
	ListBlockedUsers() ([]model.User, error)
	BlockUser(ctx context.Context, targetID uuid.UUID, reason string) (*model.User, error)
	UnblockUser(ctx context.Context, targetID uuid.UUID) (*model.User, error)
	ChangeRole(ctx context.Context, targetID uuid.UUID, role model.UserRole) (*model.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
}

func NewUserService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
) UserService {
	return &userService{
		userRepo:    userRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

func (s *userService) findUser(userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetProfile(userID uuid.UUID) (*model.User, error) {
	return s.findUser(userID)
}

func (s *userService) UpdateProfile(userID uuid.UUID, input UpdateProfileInput) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	updated := false
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != user.Name {
			user.Name = name
			updated = true
		}
	}
	if input.Phone != nil && *input.Phone != user.Phone {
		user.Phone = strings.TrimSpace(*input.Phone)
		updated = true
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != "" && email != user.Email {
			existing, err := s.userRepo.FindByEmail(email)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if existing != nil {
				logger.Warn("Profile update failed: email in use", map[string]interface{}{
					"user_id": userID,
					"email":   email,
				})
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
			updated = true
		}
	}

	if !updated {
		logger.Debug("No changes detected for user profile", map[string]interface{}{
			"user_id": userID,
		})
		return user, nil
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *userService) ChangePassword(userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	if !util.VerifyPassword(user.PasswordHash, currentPassword) {
		logger.Warn("Password change failed: wrong current password", map[string]interface{}{
			"user_id": userID,
		})
		return ErrWrongPassword
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	logger.Info("Password changed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// ListFavorites returns the favorite products in the order they were added.
// Products deleted since are skipped.
func (s *userService) ListFavorites(userID uuid.UUID) ([]model.Product, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(user.FavoriteProductIDs))
	for _, raw := range user.FavoriteProductIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return s.productRepo.FindByIDs(ids)
}

func (s *userService) AddFavorite(userID, productID uuid.UUID) (*model.User, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if user.HasFavorite(productID) {
		return user, nil
	}

	user.FavoriteProductIDs = append(user.FavoriteProductIDs, productID.String())
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Product added to favorites", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return user, nil
}

func (s *userService) RemoveFavorite(userID, productID uuid.UUID) (*model.User, error) {
	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	if !user.HasFavorite(productID) {
		return user, nil
	}

	user.FavoriteProductIDs = user.FavoriteProductIDs.Without(productID.String())
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Product removed from favorites", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return user, nil
}

func (s *userService) ClearFavorites(userID uuid.UUID) error {
	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	user.FavoriteProductIDs = model.StringList{}
	return s.userRepo.Update(user)
}

func (s *userService) ListUsers() ([]model.User, error) {
	return s.userRepo.FindAll()
}

func (s *userService) ListBlockedUsers() ([]model.User, error) {
	return s.userRepo.FindBlocked()
}

// BlockUser bans a non-admin account. An empty reason records the default.
func (s *userService) BlockUser(ctx context.Context, targetID uuid.UUID, reason string) (*model.User, error) {
	user, err := s.findUser(targetID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		logger.Warn("Refused to block admin account", map[string]interface{}{
			"target_id": targetID,
		})
		return nil, ErrAdminProtected
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = model.DefaultBanReason
	}
	now := time.Now()
	user.IsBlocked = true
	user.BanReason = &reason
	user.BannedAt = &now

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User blocked", map[string]interface{}{
		"user_id": targetID,
		"reason":  reason,
	})
	events.PublishAsync(s.publisher, events.New(events.UserBlocked, user.ID.String(), map[string]interface{}{
		"user_id": user.ID,
		"reason":  reason,
	}))
	return user, nil
}

func (s *userService) UnblockUser(ctx context.Context, targetID uuid.UUID) (*model.User, error) {
	user, err := s.findUser(targetID)
	if err != nil {
		return nil, err
	}

	user.IsBlocked = false
	user.BanReason = nil
	user.BannedAt = nil

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User unblocked", map[string]interface{}{
		"user_id": targetID,
	})
	events.PublishAsync(s.publisher, events.New(events.UserUnblocked, user.ID.String(), map[string]interface{}{
		"user_id": user.ID,
	}))
	return user, nil
}

// ChangeRole sets a user's role. Admins cannot be demoted.
func (s *userService) ChangeRole(ctx context.Context, targetID uuid.UUID, role model.UserRole) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.findUser(targetID)
	if err != nil {
		return nil, err
	}

	if user.Role == role {
		return user, nil
	}
	if user.IsAdmin() {
		logger.Warn("Refused to demote admin account", map[string]interface{}{
			"target_id": targetID,
		})
		return nil, ErrAdminProtected
	}

	previous := user.Role
	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User role changed", map[string]interface{}{
		"user_id": targetID,
		"from":    previous,
		"to":      role,
	})
	events.PublishAsync(s.publisher, events.New(events.UserRoleChanged, user.ID.String(), map[string]interface{}{
		"user_id": user.ID,
		"from":    previous,
		"to":      role,
	}))
	return user, nil
}
