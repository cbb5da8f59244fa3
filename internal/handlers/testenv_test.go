package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flavorshare/backend/internal/hash"
	authmw "github.com/flavorshare/backend/internal/middleware/auth"
	"github.com/flavorshare/backend/internal/models"
	"github.com/flavorshare/backend/internal/tokens"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *tokens.Issuer

	A   *AuthHandler
	U   *UserHandler
	R   *RecipeHandler
	Rev *ReviewHandler
	L   *LikeHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A unique shared-cache DSN keeps each test on its own in-memory
	// database while gorm's pool sees a single store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Recipe{}, &models.Review{}, &models.Like{}))

	issuer := tokens.NewIssuer([]byte("test-jwt-secret"))

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: issuer,
		A:      &AuthHandler{DB: db, Tokens: issuer},
		U:      &UserHandler{DB: db},
		R:      &RecipeHandler{DB: db},
		Rev:    &ReviewHandler{DB: db},
		L:      &LikeHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, target string, payload any) (*httptest.ResponseRecorder, echo.Context) {
	env.T.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(env.T, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser stands in for the auth middleware when a handler is invoked
// directly.
func (env *testEnv) asUser(c echo.Context, u *models.User) {
	c.Set(authmw.ContextUserID, u.ID)
	c.Set(authmw.ContextUsername, u.Username)
}

func (env *testEnv) createUser(username, email, password string) *models.User {
	env.T.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createRecipe(author *models.User, title string) *models.Recipe {
	env.T.Helper()

	recipe := models.Recipe{
		Title:        title,
		Description:  "a test recipe",
		Ingredients:  models.StringList{"flour", "water"},
		Instructions: models.StringList{"mix", "bake"},
		CookTime:     30,
		Servings:     4,
		Difficulty:   models.DifficultyEasy,
		Category:     "MAIN_COURSE",
		Image:        defaultRecipeImage,
		AuthorID:     author.ID,
	}
	require.NoError(env.T, env.DB.Create(&recipe).Error)
	return &recipe
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %T", err)
	require.Equal(t, code, he.Code)
}
