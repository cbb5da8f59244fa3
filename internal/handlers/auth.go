package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/flavorshare/backend/internal/apperr"
	"github.com/flavorshare/backend/internal/hash"
	"github.com/flavorshare/backend/internal/logging"
	"github.com/flavorshare/backend/internal/models"
	"github.com/flavorshare/backend/internal/mykafka"
	"github.com/flavorshare/backend/internal/tokens"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *tokens.Issuer
	Producer *mykafka.Producer
}

type AuthResponse struct {
	Token    string `json:"token,omitempty"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r *signupRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if len(r.Username) < 3 || len(r.Username) > 50 {
		return apperr.Wrap(apperr.ErrValidation, "username must be 3-50 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Wrap(apperr.ErrValidation, "email is invalid")
	}
	if len(r.Password) < 6 {
		return apperr.Wrap(apperr.ErrValidation, "password must be at least 6 characters")
	}
	return nil
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid body"))
	}
	if err := req.validate(); err != nil {
		l.Warn("signup_rejected", "error", err)
		return httpError(err)
	}

	var existing models.User
	if err := h.DB.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return httpError(apperr.Wrap(apperr.ErrConflict, "username already exists"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("signup_failed", "error", err)
		return httpError(err)
	}
	if err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return httpError(apperr.Wrap(apperr.ErrConflict, "email already exists"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("signup_failed", "error", err)
		return httpError(err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_failed", "error", err)
		return httpError(err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FullName:     req.FullName,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique constraints are the last word on duplicates under
		// concurrent signups.
		if isUniqueViolation(err) {
			return httpError(apperr.Wrap(apperr.ErrConflict, "username or email already exists"))
		}
		l.Error("signup_failed", "error", err)
		return httpError(err)
	}

	token, err := h.Tokens.Issue(user.Username, user.ID)
	if err != nil {
		l.Error("signup_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "user_signed_up",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("signup_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return httpError(apperr.Wrap(apperr.ErrValidation, "invalid body"))
	}
	if req.Username == "" || req.Password == "" {
		return httpError(apperr.Wrap(apperr.ErrValidation, "username and password are required"))
	}

	var user models.User
	if err := h.DB.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "username", req.Username)
			return httpError(apperr.Wrap(apperr.ErrUnauthenticated, "invalid username or password"))
		}
		l.Error("login_failed", "error", err)
		return httpError(err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "username", req.Username)
		return httpError(apperr.Wrap(apperr.ErrUnauthenticated, "invalid username or password"))
	}

	token, err := h.Tokens.Issue(user.Username, user.ID)
	if err != nil {
		l.Error("login_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("login_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
}

// Me returns the authenticated identity without re-issuing a token.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return httpError(err)
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.Wrap(apperr.ErrUnauthenticated, "user not found"))
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
