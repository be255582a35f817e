package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadController_PresignProductImage(t *testing.T) {
	env := setupControllerTest(t)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/admin/uploads/product-image", adminToken, map[string]interface{}{
		"filename":     "boot.png",
		"content_type": "image/png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decodeBody(t, w)
	assert.Contains(t, response["upload_url"], "X-Amz-Signature")
	assert.Equal(t, "products/boot.png", response["key"])

	w = env.do(t, http.MethodPost, "/api/v1/admin/uploads/product-image", adminToken, map[string]interface{}{
		"filename":     "notes.txt",
		"content_type": "text/plain",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.UploadInvalidFileType, decodeBody(t, w)["error"])
}
