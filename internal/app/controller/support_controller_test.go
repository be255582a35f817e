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

func TestSupportController_TicketLifecycle(t *testing.T) {
	env := setupControllerTest(t)
	owner, ownerToken := env.createUser(t, "owner@example.com", model.RoleUser)
	other, otherToken := env.createUser(t, "other@example.com", model.RoleUser)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)

	var ticketID string
	t.Run("Create", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/support/tickets", ownerToken, map[string]interface{}{
			"title":       "Wrong size delivered",
			"description": "Ordered M, got XL",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		ticket := decodeBody(t, w)["ticket"].(map[string]interface{})
		assert.Equal(t, string(model.TicketPending), ticket["status"])
		assert.Equal(t, owner.ID.String(), ticket["user_id"])
		ticketID = ticket["id"].(string)
	})

	t.Run("Missing description", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/support/tickets", ownerToken, map[string]interface{}{
			"title": "Only a title",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Non-admin cannot file for someone else", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/support/tickets", ownerToken, map[string]interface{}{
			"title":       "For a friend",
			"description": "Please help",
			"user_id":     other.ID.String(),
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin files on behalf of a user", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/support/tickets", adminToken, map[string]interface{}{
			"title":       "Phoned in",
			"description": "Customer called support",
			"user_id":     other.ID.String(),
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, other.ID.String(), decodeBody(t, w)["ticket"].(map[string]interface{})["user_id"])
	})

	t.Run("Admin files for an unknown user", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/support/tickets", adminToken, map[string]interface{}{
			"title":       "Ghost",
			"description": "No such user",
			"user_id":     uuid.NewString(),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Owner lists own tickets", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/support/tickets", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decodeBody(t, w)["count"])
	})

	t.Run("Other user cannot read or list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/support/tickets/"+ticketID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/support/users/"+owner.ID.String()+"/tickets", otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin reads any user's tickets", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/support/users/"+owner.ID.String()+"/tickets", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decodeBody(t, w)["count"])
	})

	t.Run("Owner cannot move to in_progress", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/v1/support/tickets/"+ticketID+"/status", ownerToken, map[string]interface{}{
			"status": "in_progress",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.TicketInvalidTransition, decodeBody(t, w)["error"])
	})

	t.Run("Unknown status", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/v1/admin/support/tickets/"+ticketID+"/status", adminToken, map[string]interface{}{
			"status": "escalated",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, apperrors.TicketInvalidStatus, response["error"])
		assert.Len(t, response["valid_statuses"], len(model.TicketStatuses))
	})

	t.Run("Admin moves the ticket", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/v1/admin/support/tickets/"+ticketID+"/status", adminToken, map[string]interface{}{
			"status": "resolved",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "resolved", decodeBody(t, w)["ticket"].(map[string]interface{})["status"])
	})

	t.Run("Owner closes", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/v1/support/tickets/"+ticketID+"/status", ownerToken, map[string]interface{}{
			"status": "closed",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "closed", decodeBody(t, w)["ticket"].(map[string]interface{})["status"])
	})

	t.Run("Admin lists and deletes", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/support/tickets", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 2, decodeBody(t, w)["count"])

		w = env.do(t, http.MethodDelete, "/api/v1/admin/support/tickets/"+ticketID, adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/support/tickets/"+ticketID, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
