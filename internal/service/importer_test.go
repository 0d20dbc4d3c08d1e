package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebook/backend/internal/models"
	"github.com/tastebook/backend/internal/service"
)

func sampleDataset() ([]service.ImportUser, []service.ImportRecipe, []service.ImportReview) {
	users := []service.ImportUser{
		{ID: 1, Name: "alice", Gender: "Female", Age: 34, Credential: "a", FollowingIDs: []int64{2}},
		{ID: 2, Name: "bob", Gender: "Male", Age: 41, Credential: "b", FollowerIDs: []int64{1}},
		{ID: 3, Name: "carol", Gender: "Unknown", Age: 28, Credential: "c"},
	}
	recipes := []service.ImportRecipe{
		{ID: 10, Name: "Pancakes", AuthorID: 1, Ingredients: []string{"flour", "milk", "egg"}},
		{ID: 11, Name: "Omelette", AuthorID: 2, Ingredients: []string{"egg", "butter"}},
	}
	reviews := []service.ImportReview{
		{ID: 100, RecipeID: 10, AuthorID: 2, Rating: 5, Body: "great", LikedBy: []int64{1, 3}},
		{ID: 101, RecipeID: 11, AuthorID: 1, Rating: 3, Body: "fine"},
	}
	return users, recipes, reviews
}

func TestImportLoadsAllTables(t *testing.T) {
	db, _, _, _, _ := newServices(t)
	importer := service.NewImportService(db)

	users, recipes, reviews := sampleDataset()
	require.NoError(t, importer.Import(users, recipes, reviews))

	counts := map[any]int64{
		&models.User{}:             3,
		&models.Recipe{}:           2,
		&models.RecipeIngredient{}: 5,
		&models.Review{}:           2,
		&models.ReviewLike{}:       2,
	}
	for model, want := range counts {
		var got int64
		require.NoError(t, db.Model(model).Count(&got).Error)
		assert.Equal(t, want, got)
	}

	// The edge appears once even though both endpoints declared it.
	var follows int64
	require.NoError(t, db.Model(&models.UserFollow{}).Count(&follows).Error)
	assert.Equal(t, int64(1), follows)
}

func TestImportIsIdempotent(t *testing.T) {
	db, _, _, _, _ := newServices(t)
	importer := service.NewImportService(db)

	users, recipes, reviews := sampleDataset()
	require.NoError(t, importer.Import(users, recipes, reviews))
	require.NoError(t, importer.Import(users, recipes, reviews))

	var userCount, recipeCount, reviewCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipeCount).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviewCount).Error)
	assert.Equal(t, int64(3), userCount)
	assert.Equal(t, int64(2), recipeCount)
	assert.Equal(t, int64(2), reviewCount)
}

func TestImportAcceptsEmptyAndNilLists(t *testing.T) {
	db, _, _, _, _ := newServices(t)
	importer := service.NewImportService(db)

	require.NoError(t, importer.Import(nil, nil, nil))

	users := []service.ImportUser{{ID: 7, Name: "dora", Gender: "Female", Age: 22, Credential: "d"}}
	require.NoError(t, importer.Import(users, nil, nil))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportOverlappingBatches(t *testing.T) {
	db, _, _, _, _ := newServices(t)
	importer := service.NewImportService(db)

	users, recipes, reviews := sampleDataset()
	require.NoError(t, importer.Import(users, recipes, reviews))

	// A second batch overlapping the first adds only the new rows.
	moreUsers := append(users, service.ImportUser{ID: 4, Name: "erin", Gender: "Female", Age: 31, Credential: "e"})
	moreRecipes := append(recipes, service.ImportRecipe{ID: 12, Name: "Toast", AuthorID: 4, Ingredients: []string{"bread"}})
	require.NoError(t, importer.Import(moreUsers, moreRecipes, reviews))

	var userCount, recipeCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipeCount).Error)
	assert.Equal(t, int64(4), userCount)
	assert.Equal(t, int64(3), recipeCount)
}
