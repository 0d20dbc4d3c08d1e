package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tastebook/backend/internal/api"
	"github.com/tastebook/backend/internal/middleware"
)

// Handlers bundles everything SetupRouter mounts.
type Handlers struct {
	Auth    *api.AuthHandler
	User    *api.UserHandler
	Recipe  *api.RecipeHandler
	Review  *api.ReviewHandler
	Admin   *api.AdminHandler
	Tokens  middleware.TokenValidator
	Limiter *middleware.RateLimiter
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.Recovery(), middleware.CORS(nil))

	// API v1 routes
	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.POST("/login", h.Auth.Login)
		users.GET("/:id", h.User.GetUser)
		users.PUT("/profile", h.User.UpdateProfile)
		users.DELETE("/:id", h.User.DeleteUser)
		users.POST("/:id/follow", h.User.Follow)
		users.GET("/analytics/highest-follow-ratio", h.User.HighestFollowRatio)
	}

	// The feed identifies its caller by bearer token rather than in-body
	// credentials.
	v1.GET("/feed", middleware.Auth(h.Tokens), h.User.Feed)

	recipes := v1.Group("/recipes")
	{
		recipes.GET("/search", h.Recipe.SearchRecipes)
		recipes.GET("/analytics/closest-calorie-pair", h.Recipe.ClosestCaloriePair)
		recipes.GET("/analytics/top-by-ingredients", h.Recipe.TopComplexRecipes)
		recipes.GET("/:id", h.Recipe.GetRecipe)
		recipes.POST("", h.Recipe.CreateRecipe)
		recipes.PATCH("/:id/times", h.Recipe.UpdateRecipeTimes)
		recipes.DELETE("/:id", h.Recipe.DeleteRecipe)

		recipes.POST("/:id/reviews", h.Review.AddReview)
		recipes.GET("/:id/reviews", h.Review.ListReviews)
		recipes.PUT("/:id/reviews/:reviewID", h.Review.EditReview)
		recipes.DELETE("/:id/reviews/:reviewID", h.Review.DeleteReview)
	}

	reviews := v1.Group("/reviews")
	{
		reviews.POST("/:id/like", h.Review.LikeReview)
		reviews.DELETE("/:id/like", h.Review.UnlikeReview)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/import", h.Limiter.Middleware(), h.Admin.Import)
		admin.POST("/drop", h.Admin.Drop)
	}

	return router
}
