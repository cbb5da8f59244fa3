package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorshare/backend/internal/models"
)

func TestCreateRecipe_DefaultsApplied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.createUser("chef_sarah", "sarah@example.com", "password123")

	payload := map[string]any{
		"title":       "Sourdough Bread",
		"description": "Slow fermented loaf",
		"cook_time":   90,
		"servings":    8,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/recipes", payload)
	env.asUser(c, user)
	require.NoError(t, env.R.CreateRecipe(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, user.ID, created.AuthorID)
	assert.Equal(t, defaultRecipeImage, created.Image)
	assert.NotNil(t, created.Ingredients)
	assert.Empty(t, created.Ingredients)
	assert.NotNil(t, created.Instructions)
	assert.Empty(t, created.Instructions)
}

func TestCreateRecipe_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "missing title", payload: map[string]any{"description": "d", "cook_time": 10, "servings": 2}},
		{name: "missing description", payload: map[string]any{"title": "t", "cook_time": 10, "servings": 2}},
		{name: "zero cook time", payload: map[string]any{"title": "t", "description": "d", "cook_time": 0, "servings": 2}},
		{name: "zero servings", payload: map[string]any{"title": "t", "description": "d", "cook_time": 10, "servings": 0}},
		{name: "bad difficulty", payload: map[string]any{"title": "t", "description": "d", "cook_time": 10, "servings": 2, "difficulty": "IMPOSSIBLE"}},
		{name: "bad category", payload: map[string]any{"title": "t", "description": "d", "cook_time": 10, "servings": 2, "category": "FUSION"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			user := env.createUser("chef_sarah", "sarah@example.com", "password123")
			_, c := env.doJSONRequest(http.MethodPost, "/api/recipes", tt.payload)
			env.asUser(c, user)
			requireHTTPError(t, env.R.CreateRecipe(c), http.StatusBadRequest)
		})
	}
}

func TestGetRecipe_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, c := env.doJSONRequest(http.MethodGet, "/api/recipes/99", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	requireHTTPError(t, env.R.GetRecipe(c), http.StatusNotFound)
}

func TestGetRecipe_IncludesAggregates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author := env.createUser("chef_sarah", "sarah@example.com", "password123")
	fan := env.createUser("chef_tom", "tom@example.com", "password123")
	recipe := env.createRecipe(author, "Sourdough Bread")

	require.NoError(t, env.DB.Create(&models.Review{Rating: 5, Comment: "great", RecipeID: recipe.ID, UserID: fan.ID}).Error)
	require.NoError(t, env.DB.Create(&models.Review{Rating: 3, Comment: "fine", RecipeID: recipe.ID, UserID: author.ID}).Error)
	require.NoError(t, env.DB.Create(&models.Like{UserID: fan.ID, RecipeID: recipe.ID}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(recipe.ID))
	require.NoError(t, env.R.GetRecipe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var view RecipeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(2), view.ReviewCount)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.InDelta(t, 4.0, view.AverageRating, 0.001)
}

func TestGetRecipes_Pagination(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author := env.createUser("chef_sarah", "sarah@example.com", "password123")
	for i := 0; i < 12; i++ {
		env.createRecipe(author, fmt.Sprintf("Recipe %d", i))
	}

	rec, c := env.doJSONRequest(http.MethodGet, "/api/recipes?page=2&size=5", nil)
	require.NoError(t, env.R.GetRecipes(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []RecipeView   `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, float64(12), resp.Meta["total"])
	assert.Equal(t, true, resp.Meta["has_prev"])
	assert.Equal(t, true, resp.Meta["has_next"])
}

func TestUpdateRecipe_PreservesEnumsOnNull(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author := env.createUser("chef_sarah", "sarah@example.com", "password123")
	recipe := env.createRecipe(author, "Sourdough Bread")

	payload := map[string]any{
		"title":        "Sourdough Bread v2",
		"description":  "updated",
		"cook_time":    60,
		"servings":     6,
		"ingredients":  nil,
		"instructions": nil,
	}
	rec, c := env.doJSONRequest(http.MethodPut, fmt.Sprintf("/api/recipes/%d", recipe.ID), payload)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(recipe.ID))
	env.asUser(c, author)
	require.NoError(t, env.R.UpdateRecipe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Recipe
	require.NoError(t, env.DB.First(&updated, recipe.ID).Error)
	assert.Equal(t, "Sourdough Bread v2", updated.Title)
	assert.Equal(t, models.DifficultyEasy, updated.Difficulty)
	assert.Equal(t, "MAIN_COURSE", updated.Category)
	assert.Equal(t, defaultRecipeImage, updated.Image)
	assert.Empty(t, updated.Ingredients)
	assert.Empty(t, updated.Instructions)
}

func TestUpdateRecipe_NonOwnerForbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author := env.createUser("chef_sarah", "sarah@example.com", "password123")
	other := env.createUser("chef_tom", "tom@example.com", "password123")
	recipe := env.createRecipe(author, "Sourdough Bread")

	payload := map[string]any{
		"title":       "Hijacked",
		"description": "nope",
		"cook_time":   10,
		"servings":    2,
	}
	_, c := env.doJSONRequest(http.MethodPut, fmt.Sprintf("/api/recipes/%d", recipe.ID), payload)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(recipe.ID))
	env.asUser(c, other)
	requireHTTPError(t, env.R.UpdateRecipe(c), http.StatusForbidden)

	var unchanged models.Recipe
	require.NoError(t, env.DB.First(&unchanged, recipe.ID).Error)
	assert.Equal(t, "Sourdough Bread", unchanged.Title)
}

func TestDeleteRecipe_OwnerOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author := env.createUser("chef_sarah", "sarah@example.com", "password123")
	other := env.createUser("chef_tom", "tom@example.com", "password123")
	recipe := env.createRecipe(author, "Sourdough Bread")
	require.NoError(t, env.DB.Create(&models.Review{Rating: 5, Comment: "great", RecipeID: recipe.ID, UserID: other.ID}).Error)
	require.NoError(t, env.DB.Create(&models.Like{UserID: other.ID, RecipeID: recipe.ID}).Error)

	_, c := env.doJSONRequest(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(recipe.ID))
	env.asUser(c, other)
	requireHTTPError(t, env.R.DeleteRecipe(c), http.StatusForbidden)

	rec, c := env.doJSONRequest(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(recipe.ID))
	env.asUser(c, author)
	require.NoError(t, env.R.DeleteRecipe(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, env.DB.Model(&models.Review{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, env.DB.Model(&models.Like{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
}
