package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/flavorshare/backend/internal/apperr"
	"github.com/flavorshare/backend/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Find(&users).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid user id"))
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrNotFound, "user not found"))
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
