package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastebook/backend/internal/models"
)

// UserProfile is the read shape for a user page. Follower and following
// counts are derived from the edge table, not the imported counters, so they
// stay correct across follows, unfollows and account deletions.
type UserProfile struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Gender         string  `json:"gender"`
	Age            int     `json:"age"`
	FollowerCount  int64   `json:"follower_count"`
	FollowingCount int64   `json:"following_count"`
	FollowerIDs    []int64 `json:"follower_ids"`
	FollowingIDs   []int64 `json:"following_ids"`
}

// ProfileUpdate carries the changeable profile fields. Nil means keep.
type ProfileUpdate struct {
	Name   *string `json:"name"`
	Gender *string `json:"gender"`
	Age    *int    `json:"age"`
}

// FollowRatio is the highest-follower-to-following-ratio analytics result.
type FollowRatio struct {
	UserID    int64   `gorm:"column:user_id" json:"user_id"`
	Name      string  `gorm:"column:name" json:"name"`
	Followers int64   `gorm:"column:followers" json:"followers"`
	Following int64   `gorm:"column:following" json:"following"`
	Ratio     float64 `gorm:"column:ratio" json:"ratio"`
}

// UserService serves user profiles, the follow graph and the feed.
type UserService struct {
	db      *gorm.DB
	auth    *AuthService
	recipes *RecipeService
}

func NewUserService(db *gorm.DB, auth *AuthService, recipes *RecipeService) *UserService {
	return &UserService{db: db, auth: auth, recipes: recipes}
}

// GetByID returns an active user's profile with sorted follower and
// following id lists. Deleted users are indistinguishable from absent ones.
func (s *UserService) GetByID(id int64) (*UserProfile, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	}

	var user models.User
	err := s.db.Select("id", "name", "gender", "age").
		First(&user, "id = ? AND is_deleted = ?", id, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}

	var followerIDs, followingIDs []int64
	if err := s.db.Model(&models.UserFollow{}).Where("following_id = ?", id).
		Pluck("follower_id", &followerIDs).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.UserFollow{}).Where("follower_id = ?", id).
		Pluck("following_id", &followingIDs).Error; err != nil {
		return nil, err
	}
	sortIDs(followerIDs)
	sortIDs(followingIDs)

	return &UserProfile{
		ID:             user.ID,
		Name:           user.Name,
		Gender:         user.Gender,
		Age:            user.Age,
		FollowerCount:  int64(len(followerIDs)),
		FollowingCount: int64(len(followingIDs)),
		FollowerIDs:    followerIDs,
		FollowingIDs:   followingIDs,
	}, nil
}

// UpdateProfile changes the caller's own name, gender and/or age. Nil fields
// keep their stored value; a name collision with another user is rejected.
func (s *UserService) UpdateProfile(auth *AuthInfo, update *ProfileUpdate) error {
	userID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}
	if update == nil || (update.Name == nil && update.Gender == nil && update.Age == nil) {
		return nil
	}

	changes := map[string]any{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidInput)
		}
		changes["name"] = name
	}
	if update.Gender != nil {
		if !models.ValidGender(*update.Gender) {
			return fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, *update.Gender)
		}
		changes["gender"] = *update.Gender
	}
	if update.Age != nil {
		if *update.Age <= 0 {
			return fmt.Errorf("%w: age must be positive", ErrInvalidInput)
		}
		changes["age"] = *update.Age
	}

	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(changes).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: name already taken", ErrInvalidInput)
		}
		return err
	}
	return nil
}

// DeleteAccount soft-deletes the caller's account and drops their follow
// edges in both directions. Only the account owner may delete it; the user's
// recipes and reviews stay in place and vanish from active read paths
// through the author joins.
func (s *UserService) DeleteAccount(auth *AuthInfo, userID int64) error {
	callerID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}
	if userID != callerID {
		return fmt.Errorf("%w: can only delete own account", ErrForbidden)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Where("follower_id = ? OR following_id = ?", userID, userID).
			Delete(&models.UserFollow{}).Error
	})
}

// Follow toggles the caller's follow edge to another active user and reports
// whether the caller follows the target afterwards. Following oneself is
// forbidden.
func (s *UserService) Follow(auth *AuthInfo, followingID int64) (bool, error) {
	if followingID <= 0 {
		return false, fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	}
	followerID, err := s.auth.Authenticate(auth)
	if err != nil {
		return false, err
	}
	if followerID == followingID {
		return false, fmt.Errorf("%w: cannot follow yourself", ErrForbidden)
	}

	following := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var target int64
		if err := tx.Model(&models.User{}).
			Where("id = ? AND is_deleted = ?", followingID, false).
			Count(&target).Error; err != nil {
			return err
		}
		if target == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, followingID)
		}

		edge := models.UserFollow{FollowerID: followerID, FollowingID: followingID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = true
			return nil
		}
		// Edge already existed: the toggle removes it.
		return tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.UserFollow{}).Error
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// Feed pages the recipes of everyone the user follows, newest first,
// optionally narrowed to one category. A user following no one gets a
// well-formed empty page.
func (s *UserService) Feed(ctx context.Context, userID int64, category string, page, size int) (*PageResult[RecipeDetail], error) {
	if _, err := s.auth.RequireActive(userID); err != nil {
		return nil, err
	}

	var followees []int64
	if err := s.db.WithContext(ctx).Model(&models.UserFollow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &followees).Error; err != nil {
		return nil, err
	}
	if len(followees) == 0 {
		return emptyPage[RecipeDetail](page, size)
	}

	build := func() *gorm.DB {
		q := s.db.WithContext(ctx).Table("recipes").
			Joins("JOIN users u ON u.id = recipes.author_id AND u.is_deleted = ?", false).
			Where("recipes.author_id IN ?", followees)
		if cat := strings.TrimSpace(category); cat != "" {
			q = q.Where("recipes.category = ?", cat)
		}
		return q
	}
	fetch := build().Select("recipes.*, u.name AS author_name")

	result, err := runPage[RecipeDetail](build(), fetch, recipeOrder("date_desc"), page, size)
	if err != nil {
		return nil, err
	}
	if err := s.recipes.fillIngredients(ctx, result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

// highestFollowRatioSQL ranks active users by followers per followee. Users
// following no one have no defined ratio and are excluded.
const highestFollowRatioSQL = `
SELECT u.id AS user_id, u.name,
       (SELECT COUNT(*) FROM user_follows f WHERE f.following_id = u.id) AS followers,
       (SELECT COUNT(*) FROM user_follows f WHERE f.follower_id = u.id) AS following,
       (SELECT COUNT(*) FROM user_follows f WHERE f.following_id = u.id) * 1.0 /
           (SELECT COUNT(*) FROM user_follows f WHERE f.follower_id = u.id) AS ratio
FROM users u
WHERE u.is_deleted = ?
  AND EXISTS (SELECT 1 FROM user_follows f WHERE f.follower_id = u.id)
ORDER BY ratio DESC, u.id ASC
LIMIT 1`

// HighestFollowRatio returns the active user with the largest
// follower-to-following ratio, smallest id on ties.
func (s *UserService) HighestFollowRatio(ctx context.Context) (*FollowRatio, error) {
	var row FollowRatio
	res := s.db.WithContext(ctx).Raw(highestFollowRatioSQL, false).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: no follow relationships yet", ErrNotFound)
	}
	return &row, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
