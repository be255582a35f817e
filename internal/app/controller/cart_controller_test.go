package controller

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartController_Flow(t *testing.T) {
	env := setupControllerTest(t)
	_, token := env.createUser(t, "buyer@example.com", model.RoleUser)

	shirt := env.createProduct(t, "Shirt", model.CategoryClothing, "25.00", 5, "M")
	socks := env.createProduct(t, "Socks", model.CategoryClothing, "5.25", 10)

	t.Run("Requires authentication", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Empty cart", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, []interface{}{}, response["items"])
		assert.EqualValues(t, 0, response["count"])
		assert.Equal(t, "0.00", response["total"])
	})

	var shirtLineID string
	t.Run("Add defaults quantity to one", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": shirt.ID.String(),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		item := decodeBody(t, w)["cart_item"].(map[string]interface{})
		assert.EqualValues(t, 1, item["quantity"])
		shirtLineID = item["id"].(string)
	})

	t.Run("Adding again accumulates", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": shirt.ID.String(),
			"quantity":   2,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		item := decodeBody(t, w)["cart_item"].(map[string]interface{})
		assert.EqualValues(t, 3, item["quantity"])
		assert.Equal(t, shirtLineID, item["id"])
	})

	t.Run("Over stock", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": shirt.ID.String(),
			"quantity":   3,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CartInsufficientStock, decodeBody(t, w)["error"])
	})

	t.Run("Unknown product", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": uuid.NewString(),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Zero quantity", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": socks.ID.String(),
			"quantity":   0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Summary totals", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
			"product_id": socks.ID.String(),
			"quantity":   3,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.EqualValues(t, 6, response["count"])
		assert.Equal(t, "90.75", response["total"])
	})

	t.Run("Update quantity", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/v1/cart/"+shirtLineID, token, map[string]interface{}{
			"quantity": 1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 1, decodeBody(t, w)["cart_item"].(map[string]interface{})["quantity"])
	})

	t.Run("Another user cannot touch the line", func(t *testing.T) {
		_, otherToken := env.createUser(t, "other@example.com", model.RoleUser)

		w := env.do(t, http.MethodDelete, "/api/v1/cart/"+shirtLineID, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.CartItemNotFound, decodeBody(t, w)["error"])
	})

	t.Run("Remove and clear", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/cart/"+shirtLineID, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodDelete, "/api/v1/cart", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
		assert.EqualValues(t, 0, decodeBody(t, w)["count"])
	})
}
