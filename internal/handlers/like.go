package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/flavorshare/backend/internal/apperr"
	"github.com/flavorshare/backend/internal/logging"
	"github.com/flavorshare/backend/internal/models"
	"github.com/flavorshare/backend/internal/mykafka"
)

type LikeHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *LikeHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "recipe_events", fmt.Sprint(event["recipeID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *LikeHandler) recipeID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperr.Wrap(apperr.ErrValidation, "invalid recipe id")
	}
	return uint(id), nil
}

func (h *LikeHandler) LikeRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "like_create")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	recipeID, err := h.recipeID(c)
	if err != nil {
		return httpError(err)
	}

	var recipe models.Recipe
	if err := h.DB.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "recipe not found"))
		}
		return httpError(err)
	}

	var count int64
	if err := h.DB.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return httpError(err)
	}
	if count > 0 {
		return httpError(apperr.Wrap(apperr.ErrConflict, "recipe already liked"))
	}

	like := models.Like{UserID: userID, RecipeID: recipeID}
	if err := h.DB.WithContext(ctx).Create(&like).Error; err != nil {
		// Concurrent double-like lands on the unique index.
		if isUniqueViolation(err) {
			return httpError(apperr.Wrap(apperr.ErrConflict, "recipe already liked"))
		}
		l.Error("like_create_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "recipe_liked",
		"recipeID": recipeID,
		"userID":   userID,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "recipe liked"})
}

func (h *LikeHandler) UnlikeRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "like_delete")

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	recipeID, err := h.recipeID(c)
	if err != nil {
		return httpError(err)
	}

	var like models.Like
	if err := h.DB.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "recipe not liked"))
		}
		return httpError(err)
	}

	if err := h.DB.WithContext(ctx).Delete(&like).Error; err != nil {
		l.Error("like_delete_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "recipe_unliked",
		"recipeID": recipeID,
		"userID":   userID,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "recipe unliked"})
}

func (h *LikeHandler) CheckLiked(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	recipeID, err := h.recipeID(c)
	if err != nil {
		return httpError(err)
	}

	var count int64
	if err := h.DB.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"liked": count > 0})
}
