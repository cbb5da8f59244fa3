package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flavorshare/backend/internal/handlers"
	authmw "github.com/flavorshare/backend/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	RecipeHandler *handlers.RecipeHandler
	ReviewHandler *handlers.ReviewHandler
	LikeHandler   *handlers.LikeHandler
	SearchHandler *handlers.SearchHandler
	Auth          *authmw.SimpleAuth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)

	api.GET("/users", d.UserHandler.GetUsers)
	api.GET("/users/:id", d.UserHandler.GetUser)

	api.GET("/recipes", d.RecipeHandler.GetRecipes)
	api.GET("/recipes/:id", d.RecipeHandler.GetRecipe)
	api.POST("/recipes", d.RecipeHandler.CreateRecipe, d.Auth.RequireAuth)
	api.PUT("/recipes/:id", d.RecipeHandler.UpdateRecipe, d.Auth.RequireAuth)
	api.DELETE("/recipes/:id", d.RecipeHandler.DeleteRecipe, d.Auth.RequireAuth)

	api.GET("/recipes/:id/reviews", d.ReviewHandler.GetReviews)
	api.POST("/recipes/:id/reviews", d.ReviewHandler.CreateReview, d.Auth.RequireAuth)
	api.DELETE("/recipes/:id/reviews/:reviewID", d.ReviewHandler.DeleteReview, d.Auth.RequireAuth)

	api.GET("/recipes/:id/like", d.LikeHandler.CheckLiked, d.Auth.RequireAuth)
	api.POST("/recipes/:id/like", d.LikeHandler.LikeRecipe, d.Auth.RequireAuth)
	api.DELETE("/recipes/:id/like", d.LikeHandler.UnlikeRecipe, d.Auth.RequireAuth)

	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.Search)
	}
}
