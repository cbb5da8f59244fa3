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
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ReviewHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "review_events", fmt.Sprint(event["recipeID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *ReviewHandler) findRecipe(ctx context.Context, c echo.Context) (*models.Recipe, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, apperr.Wrap(apperr.ErrValidation, "invalid recipe id")
	}

	var recipe models.Recipe
	if err := h.DB.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "recipe not found")
		}
		return nil, err
	}
	return &recipe, nil
}

func (h *ReviewHandler) GetReviews(c echo.Context) error {
	ctx := c.Request().Context()

	recipe, err := h.findRecipe(ctx, c)
	if err != nil {
		return httpError(err)
	}

	var reviews []models.Review
	if err := h.DB.WithContext(ctx).Where("recipe_id = ?", recipe.ID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review_create")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	recipe, err := h.findRecipe(ctx, c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid body"))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "rating must be between 1 and 5"))
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if req.Comment == "" {
		return httpError(apperr.Wrap(apperr.ErrValidation, "comment is required"))
	}

	review := models.Review{
		Rating:   req.Rating,
		Comment:  req.Comment,
		RecipeID: recipe.ID,
		UserID:   userID,
	}
	if err := h.DB.WithContext(ctx).Create(&review).Error; err != nil {
		l.Error("review_create_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "review_created",
		"reviewID": review.ID,
		"recipeID": recipe.ID,
		"userID":   userID,
		"rating":   review.Rating,
	})

	return c.JSON(http.StatusCreated, review)
}

// DeleteReview runs the fixed pipeline: the caller is already authenticated
// by middleware, the review is located (404 when absent), then ownership is
// checked (403 on mismatch) before the row is removed.
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review_delete")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	recipeID, err := strconv.Atoi(c.Param("id"))
	if err != nil || recipeID <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid recipe id"))
	}
	reviewID, err := strconv.Atoi(c.Param("reviewID"))
	if err != nil || reviewID <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid review id"))
	}

	var review models.Review
	if err := h.DB.WithContext(ctx).Where("id = ? AND recipe_id = ?", reviewID, recipeID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "review not found"))
		}
		return httpError(err)
	}

	if err := requireOwner(userID, review.UserID, "reviews"); err != nil {
		return httpError(err)
	}

	if err := h.DB.WithContext(ctx).Delete(&review).Error; err != nil {
		l.Error("review_delete_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "review_deleted",
		"reviewID": review.ID,
		"recipeID": review.RecipeID,
		"userID":   userID,
	})

	return c.NoContent(http.StatusNoContent)
}
