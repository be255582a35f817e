package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register(t *testing.T) {
	env := setupControllerTest(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantError  string
	}{
		{
			name: "Successful registration",
			body: map[string]interface{}{
				"email":    "new@example.com",
				"password": "password123",
				"name":     "New User",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Duplicate email",
			body: map[string]interface{}{
				"email":    "NEW@example.com",
				"password": "password123",
				"name":     "Again",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.AuthEmailAlreadyExists,
		},
		{
			name: "Invalid email",
			body: map[string]interface{}{
				"email":    "not-an-email",
				"password": "password123",
				"name":     "Bad",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ValidationInvalidInput,
		},
		{
			name: "Short password",
			body: map[string]interface{}{
				"email":    "short@example.com",
				"password": "abc",
				"name":     "Short",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ValidationInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			response := decodeBody(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, response["error"])
				return
			}

			assert.NotEmpty(t, response["token"])
			user := response["user"].(map[string]interface{})
			assert.Equal(t, "new@example.com", user["email"])
			assert.Equal(t, string(model.RoleUser), user["role"])
			assert.NotContains(t, user, "password_hash")
		})
	}
}

func TestAuthController_RegisterReportsFieldNames(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email": "x@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decodeBody(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "name")
}

func TestAuthController_Login(t *testing.T) {
	env := setupControllerTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "login@example.com",
		"password": "password123",
		"name":     "Login User",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Successful login", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "Login@Example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeBody(t, w)["token"])
	})

	t.Run("Wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "login@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.AuthInvalidCredentials, decodeBody(t, w)["error"])
	})

	t.Run("Unknown email", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Blocked account", func(t *testing.T) {
		reason := "chargeback fraud"
		require.NoError(t, env.db.Model(&model.User{}).
			Where("email = ?", "login@example.com").
			Updates(map[string]interface{}{"is_blocked": true, "ban_reason": reason}).Error)

		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "login@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, apperrors.AuthAccountBlocked, response["error"])
		assert.Contains(t, response["message"], reason)
	})
}

func TestAuthController_GetMe(t *testing.T) {
	env := setupControllerTest(t)
	user, token := env.createUser(t, "me@example.com", model.RoleUser)

	t.Run("Authenticated", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		me := decodeBody(t, w)["user"].(map[string]interface{})
		assert.Equal(t, user.ID.String(), me["id"])
	})

	t.Run("Missing token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.AuthTokenInvalid, decodeBody(t, w)["error"])
	})

	t.Run("Blocked after token issued", func(t *testing.T) {
		require.NoError(t, env.db.Model(user).Update("is_blocked", true).Error)

		w := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.AuthAccountBlocked, decodeBody(t, w)["error"])
	})
}
