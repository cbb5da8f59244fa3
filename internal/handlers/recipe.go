package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/flavorshare/backend/internal/apperr"
	"github.com/flavorshare/backend/internal/logging"
	"github.com/flavorshare/backend/internal/models"
	"github.com/flavorshare/backend/internal/mykafka"
	"github.com/flavorshare/backend/internal/util"
)

const defaultRecipeImage = "https://images.unsplash.com/photo-1546554137-f86b9593a222?w=800&q=80&auto=format&fit=crop"

type RecipeHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// RecipeView decorates a recipe with the aggregates the clients render on
// recipe cards.
type RecipeView struct {
	models.Recipe
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
	LikeCount     int64   `json:"like_count"`
}

type recipeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookTime     int      `json:"cook_time"`
	Servings     int      `json:"servings"`
	Difficulty   *string  `json:"difficulty"`
	Category     *string  `json:"category"`
	Image        *string  `json:"image"`
}

func (r *recipeRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" {
		return apperr.Wrap(apperr.ErrValidation, "title is required")
	}
	if r.Description == "" {
		return apperr.Wrap(apperr.ErrValidation, "description is required")
	}
	if r.CookTime <= 0 {
		return apperr.Wrap(apperr.ErrValidation, "cook time must be positive")
	}
	if r.Servings <= 0 {
		return apperr.Wrap(apperr.ErrValidation, "servings must be positive")
	}
	if r.Difficulty != nil && *r.Difficulty != "" && !models.Difficulties[*r.Difficulty] {
		return apperr.Wrapf(apperr.ErrValidation, "unknown difficulty %q", *r.Difficulty)
	}
	if r.Category != nil && *r.Category != "" && !models.Categories[*r.Category] {
		return apperr.Wrapf(apperr.ErrValidation, "unknown category %q", *r.Category)
	}
	return nil
}

func (h *RecipeHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "recipe_events", fmt.Sprint(event["recipeID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// withStats merges review and like aggregates into the recipe rows with one
// grouped query per relation instead of per-recipe lookups.
func (h *RecipeHandler) withStats(ctx context.Context, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	ids := make([]uint, len(recipes))
	for i, r := range recipes {
		views[i] = RecipeView{Recipe: r}
		ids[i] = r.ID
	}

	var reviewStats []struct {
		RecipeID      uint
		ReviewCount   int64
		AverageRating float64
	}
	if err := h.DB.WithContext(ctx).Model(&models.Review{}).
		Select("recipe_id, COUNT(*) AS review_count, AVG(rating) AS average_rating").
		Where("recipe_id IN ?", ids).
		Group("recipe_id").
		Scan(&reviewStats).Error; err != nil {
		return nil, err
	}

	var likeStats []struct {
		RecipeID  uint
		LikeCount int64
	}
	if err := h.DB.WithContext(ctx).Model(&models.Like{}).
		Select("recipe_id, COUNT(*) AS like_count").
		Where("recipe_id IN ?", ids).
		Group("recipe_id").
		Scan(&likeStats).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]*RecipeView, len(views))
	for i := range views {
		byID[views[i].ID] = &views[i]
	}
	for _, s := range reviewStats {
		if v, ok := byID[s.RecipeID]; ok {
			v.ReviewCount = s.ReviewCount
			v.AverageRating = s.AverageRating
		}
	}
	for _, s := range likeStats {
		if v, ok := byID[s.RecipeID]; ok {
			v.LikeCount = s.LikeCount
		}
	}
	return views, nil
}

func (h *RecipeHandler) GetRecipes(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.WithContext(ctx).Model(&models.Recipe{})
	if category := c.QueryParam("category"); category != "" {
		if !models.Categories[category] {
			return httpError(apperr.Wrapf(apperr.ErrValidation, "unknown category %q", category))
		}
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return httpError(err)
	}

	var items []models.Recipe
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return httpError(err)
	}

	views, err := h.withStats(ctx, items)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": views,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *RecipeHandler) GetRecipe(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid recipe id"))
	}

	var recipe models.Recipe
	if err := h.DB.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "recipe not found"))
		}
		return httpError(err)
	}

	views, err := h.withStats(ctx, []models.Recipe{recipe})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, views[0])
}

func (h *RecipeHandler) CreateRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "recipe_create")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid body"))
	}
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	recipe := models.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  models.StringList{},
		Instructions: models.StringList{},
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Image:        defaultRecipeImage,
		AuthorID:     userID,
	}
	if req.Ingredients != nil {
		recipe.Ingredients = models.StringList(req.Ingredients)
	}
	if req.Instructions != nil {
		recipe.Instructions = models.StringList(req.Instructions)
	}
	if req.Difficulty != nil {
		recipe.Difficulty = *req.Difficulty
	}
	if req.Category != nil {
		recipe.Category = *req.Category
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		recipe.Image = strings.TrimSpace(*req.Image)
	}

	if err := h.DB.WithContext(ctx).Create(&recipe).Error; err != nil {
		l.Error("recipe_create_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "recipe_created",
		"recipeID": recipe.ID,
		"userID":   userID,
		"title":    recipe.Title,
	})

	l.Info("recipe_created", "recipe_id", recipe.ID)
	return c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe keeps the previous difficulty, category and image when the
// request leaves them null; list fields are normalized to empty slices.
func (h *RecipeHandler) UpdateRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "recipe_update")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid recipe id"))
	}

	var recipe models.Recipe
	if err := h.DB.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "recipe not found"))
		}
		return httpError(err)
	}

	if err := requireOwner(userID, recipe.AuthorID, "recipes"); err != nil {
		return httpError(err)
	}

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid body"))
	}
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	recipe.Title = req.Title
	recipe.Description = req.Description
	recipe.CookTime = req.CookTime
	recipe.Servings = req.Servings
	recipe.Ingredients = models.StringList{}
	recipe.Instructions = models.StringList{}
	if req.Ingredients != nil {
		recipe.Ingredients = models.StringList(req.Ingredients)
	}
	if req.Instructions != nil {
		recipe.Instructions = models.StringList(req.Instructions)
	}
	if req.Difficulty != nil && *req.Difficulty != "" {
		recipe.Difficulty = *req.Difficulty
	}
	if req.Category != nil && *req.Category != "" {
		recipe.Category = *req.Category
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		recipe.Image = strings.TrimSpace(*req.Image)
	}

	if err := h.DB.WithContext(ctx).Save(&recipe).Error; err != nil {
		l.Error("recipe_update_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "recipe_updated",
		"recipeID": recipe.ID,
		"userID":   userID,
		"title":    recipe.Title,
	})

	return c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "recipe_delete")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid recipe id"))
	}

	var recipe models.Recipe
	if err := h.DB.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "recipe not found"))
		}
		return httpError(err)
	}

	if err := requireOwner(userID, recipe.AuthorID, "recipes"); err != nil {
		return httpError(err)
	}

	// Reviews and likes hang off the recipe, so they go in the same
	// transaction.
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
	if txErr != nil {
		l.Error("recipe_delete_failed", "error", txErr)
		return httpError(txErr)
	}

	h.publish(c, map[string]any{
		"type":     "recipe_deleted",
		"recipeID": recipe.ID,
		"userID":   userID,
	})

	return c.NoContent(http.StatusNoContent)
}
