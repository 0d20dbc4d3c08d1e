package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastebook/backend/internal/models"
)

// ReviewDetail is the read shape for review listings: the persisted columns
// plus the joined author name and the current like count.
type ReviewDetail struct {
	models.Review `gorm:"embedded"`
	AuthorName    string `gorm:"column:author_name" json:"author_name"`
	LikeCount     int64  `gorm:"column:like_count" json:"like_count"`
}

// ReviewService handles review mutations and listings. Every mutation runs
// in one transaction together with the recipe aggregate recompute, so a
// reader never sees a committed review change with a stale aggregate.
type ReviewService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewReviewService(db *gorm.DB, auth *AuthService) *ReviewService {
	return &ReviewService{db: db, auth: auth}
}

// Add creates a review. The rating must be in [1,5] and the recipe must be
// visible (existing, active author). A second review for the same
// (author, recipe) pair is an authorization failure; the unique index makes
// that hold under concurrent attempts too.
func (s *ReviewService) Add(auth *AuthInfo, recipeID int64, rating int, body string) (int64, error) {
	if recipeID <= 0 {
		return 0, fmt.Errorf("%w: invalid recipe id", ErrInvalidInput)
	}
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: rating must be in [1,5]", ErrInvalidInput)
	}
	authorID, err := s.auth.Authenticate(auth)
	if err != nil {
		return 0, err
	}

	var reviewID int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var visible int64
		if err := tx.Table("recipes").
			Joins("JOIN users u ON u.id = recipes.author_id AND u.is_deleted = ?", false).
			Where("recipes.id = ?", recipeID).
			Count(&visible).Error; err != nil {
			return err
		}
		if visible == 0 {
			return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("recipe_id = ? AND author_id = ?", recipeID, authorID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: already reviewed this recipe", ErrForbidden)
		}

		if err := tx.Model(&models.Review{}).Select("COALESCE(MAX(id), 0) + 1").Scan(&reviewID).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		review := models.Review{
			ID:          reviewID,
			RecipeID:    recipeID,
			AuthorID:    authorID,
			Rating:      float64(rating),
			Body:        body,
			SubmittedAt: &now,
			ModifiedAt:  &now,
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: already reviewed this recipe", ErrForbidden)
			}
			return err
		}

		return recomputeRecipeAggregate(tx, recipeID)
	})
	if err != nil {
		return 0, err
	}
	return reviewID, nil
}

// Edit updates the rating and body of the caller's own review and bumps the
// modified timestamp. The aggregate is recomputed in the same transaction.
func (s *ReviewService) Edit(auth *AuthInfo, recipeID, reviewID int64, rating int, body string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be in [1,5]", ErrInvalidInput)
	}
	authorID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		review, err := loadReview(tx, recipeID, reviewID)
		if err != nil {
			return err
		}
		if review.AuthorID != authorID {
			return fmt.Errorf("%w: not the review author", ErrForbidden)
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.Review{}).Where("id = ?", reviewID).Updates(map[string]any{
			"rating":      float64(rating),
			"body":        body,
			"modified_at": now,
		}).Error; err != nil {
			return err
		}

		return recomputeRecipeAggregate(tx, recipeID)
	})
}

// Delete removes the caller's own review and its like edges, then
// recomputes the aggregate, all in one transaction.
func (s *ReviewService) Delete(auth *AuthInfo, recipeID, reviewID int64) error {
	authorID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		review, err := loadReview(tx, recipeID, reviewID)
		if err != nil {
			return err
		}
		if review.AuthorID != authorID {
			return fmt.Errorf("%w: not the review author", ErrForbidden)
		}

		if err := tx.Where("review_id = ?", reviewID).Delete(&models.ReviewLike{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Review{}, "id = ?", reviewID).Error; err != nil {
			return err
		}

		return recomputeRecipeAggregate(tx, recipeID)
	})
}

// Like adds the caller's like edge to a review and returns the resulting
// like count. Liking twice is a no-op; liking one's own review is forbidden.
func (s *ReviewService) Like(auth *AuthInfo, reviewID int64) (int64, error) {
	return s.toggleLike(auth, reviewID, true)
}

// Unlike removes the caller's like edge, if present, and returns the
// resulting like count.
func (s *ReviewService) Unlike(auth *AuthInfo, reviewID int64) (int64, error) {
	return s.toggleLike(auth, reviewID, false)
}

func (s *ReviewService) toggleLike(auth *AuthInfo, reviewID int64, like bool) (int64, error) {
	if reviewID <= 0 {
		return 0, fmt.Errorf("%w: invalid review id", ErrInvalidInput)
	}
	userID, err := s.auth.Authenticate(auth)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Select("id", "author_id").First(&review, "id = ?", reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
			}
			return err
		}

		if like {
			if review.AuthorID == userID {
				return fmt.Errorf("%w: cannot like own review", ErrForbidden)
			}
			edge := models.ReviewLike{ReviewID: reviewID, AuthorID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("review_id = ? AND author_id = ?", reviewID, userID).
				Delete(&models.ReviewLike{}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.ReviewLike{}).Where("review_id = ?", reviewID).Count(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByRecipe pages a recipe's reviews, excluding reviews whose author was
// soft-deleted, with the like count joined in.
func (s *ReviewService) ListByRecipe(recipeID int64, page, size int, sortKey string) (*PageResult[ReviewDetail], error) {
	if recipeID <= 0 {
		return nil, fmt.Errorf("%w: invalid recipe id", ErrInvalidInput)
	}

	build := func() *gorm.DB {
		return s.db.Table("reviews").
			Joins("JOIN users u ON u.id = reviews.author_id AND u.is_deleted = ?", false).
			Where("reviews.recipe_id = ?", recipeID)
	}
	fetch := build().Select(
		"reviews.*, u.name AS author_name, " +
			"(SELECT COUNT(*) FROM review_likes rl WHERE rl.review_id = reviews.id) AS like_count")

	return runPage[ReviewDetail](build(), fetch, reviewOrder(sortKey), page, size)
}

func reviewOrder(sortKey string) string {
	switch strings.ToLower(strings.TrimSpace(sortKey)) {
	case "rating_desc":
		return "reviews.rating DESC, reviews.id DESC"
	case "date_desc":
		return "reviews.submitted_at DESC NULLS LAST, reviews.id DESC"
	default:
		return "reviews.id ASC"
	}
}

func loadReview(tx *gorm.DB, recipeID, reviewID int64) (*models.Review, error) {
	if recipeID <= 0 || reviewID <= 0 {
		return nil, fmt.Errorf("%w: invalid review reference", ErrInvalidInput)
	}
	var review models.Review
	if err := tx.First(&review, "id = ? AND recipe_id = ?", reviewID, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return nil, err
	}
	return &review, nil
}

// recomputeRecipeAggregate rewrites a recipe's review count and mean rating
// from the current review rows. Zero reviews clears the rating to null. The
// mean is rounded half-up to two decimals. Must run inside the transaction
// of the triggering review mutation.
func recomputeRecipeAggregate(tx *gorm.DB, recipeID int64) error {
	var agg struct {
		Count int64
		Mean  *float64
	}
	if err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, AVG(rating) AS mean").
		Where("recipe_id = ?", recipeID).
		Scan(&agg).Error; err != nil {
		return err
	}

	updates := map[string]any{"review_count": agg.Count}
	if agg.Count == 0 || agg.Mean == nil {
		updates["agg_rating"] = nil
	} else {
		updates["agg_rating"] = math.Round(*agg.Mean*100) / 100
	}
	return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error
}
