package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebook/backend/internal/models"
	"github.com/tastebook/backend/internal/service"
)

func TestGetUserProfileDerivesCounts(t *testing.T) {
	db, _, _, _, users := newServices(t)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")
	require.NoError(t, db.Create(&[]models.UserFollow{
		{FollowerID: 3, FollowingID: 1},
		{FollowerID: 2, FollowingID: 1},
		{FollowerID: 1, FollowingID: 2},
	}).Error)

	profile, err := users.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Name)
	assert.Equal(t, int64(2), profile.FollowerCount)
	assert.Equal(t, int64(1), profile.FollowingCount)
	// Edge lists come back sorted ascending.
	assert.Equal(t, []int64{2, 3}, profile.FollowerIDs)
	assert.Equal(t, []int64{2}, profile.FollowingIDs)

	_, err = users.GetByID(999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db, _, _, _, users := newServices(t)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")

	name := "alicia"
	gender := models.GenderFemale
	age := 31
	err := users.UpdateProfile(authFor(1, "alice"), &service.ProfileUpdate{Name: &name, Gender: &gender, Age: &age})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, 1).Error)
	assert.Equal(t, "alicia", user.Name)
	assert.Equal(t, models.GenderFemale, user.Gender)
	assert.Equal(t, 31, user.Age)

	taken := "bob"
	err = users.UpdateProfile(authFor(1, "alice"), &service.ProfileUpdate{Name: &taken})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	bad := "Robot"
	err = users.UpdateProfile(authFor(1, "alice"), &service.ProfileUpdate{Gender: &bad})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// No fields set is a no-op.
	require.NoError(t, users.UpdateProfile(authFor(1, "alice"), &service.ProfileUpdate{}))
}

func TestFollowToggleRoundTrip(t *testing.T) {
	db, _, _, _, users := newServices(t)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")

	following, err := users.Follow(authFor(1, "alice"), 2)
	require.NoError(t, err)
	assert.True(t, following)

	profile, err := users.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.FollowerCount)

	// The second toggle removes the edge, restoring the original state.
	following, err = users.Follow(authFor(1, "alice"), 2)
	require.NoError(t, err)
	assert.False(t, following)

	profile, err = users.GetByID(2)
	require.NoError(t, err)
	assert.Zero(t, profile.FollowerCount)

	_, err = users.Follow(authFor(1, "alice"), 1)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = users.Follow(authFor(1, "alice"), 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteAccountCascadesFollows(t *testing.T) {
	db, _, _, _, users := newServices(t)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")
	require.NoError(t, db.Create(&[]models.UserFollow{
		{FollowerID: 2, FollowingID: 1},
		{FollowerID: 1, FollowingID: 3},
		{FollowerID: 2, FollowingID: 3},
	}).Error)

	err := users.DeleteAccount(authFor(2, "bob"), 1)
	assert.ErrorIs(t, err, service.ErrForbidden)

	require.NoError(t, users.DeleteAccount(authFor(1, "alice"), 1))

	_, err = users.GetByID(1)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// Only edges not touching the deleted account survive.
	var edges []models.UserFollow
	require.NoError(t, db.Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0].FollowerID)
	assert.Equal(t, int64(3), edges[0].FollowingID)

	// A deleted account cannot authenticate again.
	err = users.DeleteAccount(authFor(1, "alice"), 1)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestFeed(t *testing.T) {
	db, _, _, _, users := newServices(t)
	ctx := context.Background()
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")
	seedRecipe(t, db, 10, 2, "Old", nil, nil, ts("2023-01-01T00:00:00Z"))
	seedRecipe(t, db, 11, 2, "New", nil, nil, ts("2023-06-01T00:00:00Z"))
	seedRecipe(t, db, 12, 3, "Unfollowed", nil, nil, ts("2023-12-01T00:00:00Z"))

	_, err := users.Follow(authFor(1, "alice"), 2)
	require.NoError(t, err)

	result, err := users.Feed(ctx, 1, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	// Newest first.
	assert.Equal(t, int64(11), result.Items[0].ID)
	assert.Equal(t, int64(10), result.Items[1].ID)
	assert.Equal(t, "bob", result.Items[0].AuthorName)

	// The category filter narrows within the followed set.
	result, err = users.Feed(ctx, 1, "Dessert", 1, 10)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	result, err = users.Feed(ctx, 1, "Soup", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Items)

	// Following no one yields an empty page, not an error.
	result, err = users.Feed(ctx, 2, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)

	_, err = users.Feed(ctx, 999, "", 1, 10)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestHighestFollowRatio(t *testing.T) {
	db, _, _, _, users := newServices(t)
	ctx := context.Background()
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")

	_, err := users.HighestFollowRatio(ctx)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// alice: 2 followers / 1 following = 2.0; bob: 1/2 = 0.5; carol: 1/1 = 1.0.
	require.NoError(t, db.Create(&[]models.UserFollow{
		{FollowerID: 2, FollowingID: 1},
		{FollowerID: 3, FollowingID: 1},
		{FollowerID: 1, FollowingID: 2},
		{FollowerID: 2, FollowingID: 3},
	}).Error)

	row, err := users.HighestFollowRatio(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.UserID)
	assert.Equal(t, "alice", row.Name)
	assert.Equal(t, int64(2), row.Followers)
	assert.Equal(t, int64(1), row.Following)
	assert.InDelta(t, 2.0, row.Ratio, 1e-9)
}
