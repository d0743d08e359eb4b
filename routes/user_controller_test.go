package routes_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezza-forms/backend/model"
)

func TestUserCRUD(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	rec := doJSON(t, handler, http.MethodPost, "/api/users", admin, map[string]any{
		"fullName": "Alice Martin",
		"email":    "alice@example.com",
		"password": "pass-word",
		"role":     "commercial",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	userId := int(created["userId"].(float64))

	rec = doJSON(t, handler, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody[[]model.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice Martin", users[0].FullName)
	assert.Equal(t, model.RoleCommercial, users[0].Role)

	// password hashes never leak
	assert.NotContains(t, rec.Body.String(), "password")

	rec = doJSON(t, handler, http.MethodPut, "/api/users/"+strconv.Itoa(userId), admin, map[string]any{
		"fullName": "Alice Martin",
		"email":    "alice@example.com",
		"role":     "assistance",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var role string
	require.NoError(t, a.QueryRow(`SELECT role FROM users WHERE id = ?`, userId).Scan(&role))
	assert.Equal(t, "assistance", role)

	rec = doJSON(t, handler, http.MethodDelete, "/api/users/"+strconv.Itoa(userId), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserValidation(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	rec := doJSON(t, handler, http.MethodPost, "/api/users", admin, map[string]any{
		"fullName": "No Role",
		"email":    "norole@example.com",
		"password": "pass-word",
		"role":     "janitor",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/users", admin, map[string]any{
		"fullName": "No Password",
		"email":    "nopass@example.com",
		"role":     "commercial",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersRequireSuperadmin(t *testing.T) {
	a, handler := newTestApp(t)
	assistance := tokenFor(t, a, model.RoleAssistance)

	rec := doJSON(t, handler, http.MethodGet, "/api/users", assistance, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProtectedUser(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)
	setupSuperadmin(t, handler)

	var userId int
	require.NoError(t, a.QueryRow(`SELECT id FROM users WHERE is_protected = 1`).Scan(&userId))

	// the protected account cannot be deleted
	rec := doJSON(t, handler, http.MethodDelete, "/api/users/"+strconv.Itoa(userId), admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Cannot delete superadmin", body["message"])

	// name and role edits are ignored, only email and password change
	rec = doJSON(t, handler, http.MethodPut, "/api/users/"+strconv.Itoa(userId), admin, map[string]any{
		"fullName": "Renamed",
		"email":    "newroot@example.com",
		"role":     "commercial",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fullName, email, role string
	require.NoError(t, a.QueryRow(
		`SELECT full_name, email, role FROM users WHERE id = ?`, userId,
	).Scan(&fullName, &email, &role))
	assert.Equal(t, "Root Admin", fullName)
	assert.Equal(t, "newroot@example.com", email)
	assert.Equal(t, "superadmin", role)
}
