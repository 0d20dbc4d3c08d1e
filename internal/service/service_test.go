package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tastebook/backend/internal/models"
	"github.com/tastebook/backend/internal/service"
	"github.com/tastebook/backend/internal/testhelpers"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testhelpers.NewTestDB(t)
}

func newServices(t *testing.T) (*gorm.DB, *service.AuthService, *service.RecipeService, *service.ReviewService, *service.UserService) {
	t.Helper()
	db := newTestDB(t)
	auth := service.NewAuthService(db, "test-jwt-secret")
	recipes := service.NewRecipeService(db, auth, nil)
	reviews := service.NewReviewService(db, auth)
	users := service.NewUserService(db, auth, recipes)
	return db, auth, recipes, reviews, users
}

func seedUser(t *testing.T, db *gorm.DB, id int64, name string) {
	t.Helper()
	err := db.Create(&models.User{
		ID:         id,
		Name:       name,
		Gender:     models.GenderUnknown,
		Age:        30,
		Credential: "secret-" + name,
	}).Error
	require.NoError(t, err)
}

func authFor(id int64, name string) *service.AuthInfo {
	return &service.AuthInfo{AuthorID: id, Credential: "secret-" + name}
}

func seedRecipe(t *testing.T, db *gorm.DB, id, authorID int64, name string, rating *float64, calories *float64, published time.Time) {
	t.Helper()
	err := db.Create(&models.Recipe{
		ID:            id,
		Name:          name,
		AuthorID:      authorID,
		DatePublished: &published,
		Category:      "Dessert",
		AggRating:     rating,
		Calories:      calories,
	}).Error
	require.NoError(t, err)
}

func f64(v float64) *float64 { return &v }

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
