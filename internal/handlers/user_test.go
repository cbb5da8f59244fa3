package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorshare/backend/internal/models"
)

func TestGetUsers_ListsAll(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.createUser("chef_sarah", "sarah@example.com", "password123")
	env.createUser("chef_tom", "tom@example.com", "password123")

	rec, c := env.doJSONRequest(http.MethodGet, "/api/users", nil)
	require.NoError(t, env.U.GetUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var users []models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "chef_sarah", users[0].Username)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, c := env.doJSONRequest(http.MethodGet, "/api/users/99", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	requireHTTPError(t, env.U.GetUser(c), http.StatusNotFound)
}
