package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		Name:         "User " + email,
		Role:         role,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, name, category, price string, stock int, sizes ...string) *model.Product {
	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		ImageURL:    "https://example.com/" + name + ".jpg",
		Stock:       stock,
		Sizes:       model.StringList(sizes),
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func createReview(t *testing.T, testDB *gorm.DB, productID, authorID uuid.UUID, rating int) {
	review := &model.Review{Rating: rating, Comment: "comment", ProductID: productID, AuthorID: authorID}
	require.NoError(t, testDB.Create(review).Error)
}

func productNames(products []model.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

type sentNotification struct {
	userID uuid.UUID
	kind   string
	data   interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) NotifyUser(userID uuid.UUID, kind string, data interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID: userID, kind: kind, data: data})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
