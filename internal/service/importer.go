package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastebook/backend/internal/database"
	"github.com/tastebook/backend/internal/models"
)

// importBatchSize bounds the rows per INSERT batch to keep memory and
// transaction log pressure flat on large loads.
const importBatchSize = 1000

// ImportUser is one user record of a bulk load, with its follow edge lists.
type ImportUser struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Gender         string  `json:"gender"`
	Age            int     `json:"age"`
	FollowerCount  int     `json:"follower_count"`
	FollowingCount int     `json:"following_count"`
	Credential     string  `json:"credential"`
	IsDeleted      bool    `json:"is_deleted"`
	FollowerIDs    []int64 `json:"follower_ids"`
	FollowingIDs   []int64 `json:"following_ids"`
}

// ImportRecipe is one recipe record of a bulk load, with its ingredient list.
type ImportRecipe struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	AuthorID      int64      `json:"author_id"`
	CookTime      string     `json:"cook_time"`
	PrepTime      string     `json:"prep_time"`
	TotalTime     string     `json:"total_time"`
	DatePublished *time.Time `json:"date_published"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	AggRating     *float64   `json:"agg_rating"`
	ReviewCount   int        `json:"review_count"`
	Calories      *float64   `json:"calories"`
	Fat           *float64   `json:"fat"`
	SaturatedFat  *float64   `json:"saturated_fat"`
	Cholesterol   *float64   `json:"cholesterol"`
	Sodium        *float64   `json:"sodium"`
	Carbohydrate  *float64   `json:"carbohydrate"`
	Fiber         *float64   `json:"fiber"`
	Sugar         *float64   `json:"sugar"`
	Protein       *float64   `json:"protein"`
	Servings      string     `json:"servings"`
	Yield         string     `json:"yield"`
	Ingredients   []string   `json:"ingredients"`
}

// ImportReview is one review record of a bulk load, with the ids of users
// who liked it.
type ImportReview struct {
	ID          int64      `json:"id"`
	RecipeID    int64      `json:"recipe_id"`
	AuthorID    int64      `json:"author_id"`
	Rating      float64    `json:"rating"`
	Body        string     `json:"body"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ModifiedAt  *time.Time `json:"modified_at"`
	LikedBy     []int64    `json:"liked_by"`
}

// ImportService loads large external record sets into the schema. Every
// insert skips on duplicate key, so re-running a batch, or a batch that
// overlaps an earlier one, duplicates nothing and reports no conflict.
type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// Import ingests users, recipes and reviews. Any list may be nil or empty.
// Tables load in foreign-key dependency order: users, recipes, ingredients,
// reviews, then like and follow edges. All rows go in under one transaction,
// so a mid-load failure leaves nothing behind; the FK-join indexes are
// ensured after the rows are in.
func (s *ImportService) Import(users []ImportUser, recipes []ImportRecipe, reviews []ImportReview) error {
	jobID := uuid.New()
	log.Printf("import %s: %d users, %d recipes, %d reviews", jobID, len(users), len(recipes), len(reviews))
	start := time.Now()

	userRows, followRows := flattenUsers(users)
	recipeRows, ingredientRows := flattenRecipes(recipes)
	reviewRows, likeRows := flattenReviews(reviews)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Fresh clause chain per table; a finished *gorm.DB must not be reused.
		insert := func(rows any, n int) error {
			if n == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(rows, importBatchSize).Error
		}

		if err := insert(userRows, len(userRows)); err != nil {
			return err
		}
		if err := insert(recipeRows, len(recipeRows)); err != nil {
			return err
		}
		if err := insert(ingredientRows, len(ingredientRows)); err != nil {
			return err
		}
		if err := insert(reviewRows, len(reviewRows)); err != nil {
			return err
		}
		if err := insert(likeRows, len(likeRows)); err != nil {
			return err
		}
		if err := insert(followRows, len(followRows)); err != nil {
			return err
		}

		return database.EnsureIndexes(tx)
	})
	if err != nil {
		log.Printf("import %s failed: %v", jobID, err)
		return err
	}

	log.Printf("import %s done in %s", jobID, time.Since(start).Round(time.Millisecond))
	return nil
}

func flattenUsers(users []ImportUser) ([]models.User, []models.UserFollow) {
	rows := make([]models.User, 0, len(users))
	var follows []models.UserFollow
	for _, u := range users {
		rows = append(rows, models.User{
			ID:             u.ID,
			Name:           u.Name,
			Gender:         u.Gender,
			Age:            u.Age,
			FollowerCount:  u.FollowerCount,
			FollowingCount: u.FollowingCount,
			Credential:     u.Credential,
			IsDeleted:      u.IsDeleted,
		})
		// A nil edge list means no rows to insert, not an error.
		for _, follower := range u.FollowerIDs {
			follows = append(follows, models.UserFollow{FollowerID: follower, FollowingID: u.ID})
		}
		for _, following := range u.FollowingIDs {
			follows = append(follows, models.UserFollow{FollowerID: u.ID, FollowingID: following})
		}
	}
	return rows, follows
}

func flattenRecipes(recipes []ImportRecipe) ([]models.Recipe, []models.RecipeIngredient) {
	rows := make([]models.Recipe, 0, len(recipes))
	var ingredients []models.RecipeIngredient
	for _, r := range recipes {
		rows = append(rows, models.Recipe{
			ID:            r.ID,
			Name:          r.Name,
			AuthorID:      r.AuthorID,
			CookTime:      r.CookTime,
			PrepTime:      r.PrepTime,
			TotalTime:     r.TotalTime,
			DatePublished: r.DatePublished,
			Description:   r.Description,
			Category:      r.Category,
			AggRating:     r.AggRating,
			ReviewCount:   r.ReviewCount,
			Calories:      r.Calories,
			Fat:           r.Fat,
			SaturatedFat:  r.SaturatedFat,
			Cholesterol:   r.Cholesterol,
			Sodium:        r.Sodium,
			Carbohydrate:  r.Carbohydrate,
			Fiber:         r.Fiber,
			Sugar:         r.Sugar,
			Protein:       r.Protein,
			Servings:      r.Servings,
			Yield:         r.Yield,
		})
		for _, part := range r.Ingredients {
			ingredients = append(ingredients, models.RecipeIngredient{RecipeID: r.ID, Ingredient: part})
		}
	}
	return rows, ingredients
}

func flattenReviews(reviews []ImportReview) ([]models.Review, []models.ReviewLike) {
	rows := make([]models.Review, 0, len(reviews))
	var likes []models.ReviewLike
	for _, r := range reviews {
		rows = append(rows, models.Review{
			ID:          r.ID,
			RecipeID:    r.RecipeID,
			AuthorID:    r.AuthorID,
			Rating:      r.Rating,
			Body:        r.Body,
			SubmittedAt: r.SubmittedAt,
			ModifiedAt:  r.ModifiedAt,
		})
		for _, userID := range r.LikedBy {
			likes = append(likes, models.ReviewLike{ReviewID: r.ID, AuthorID: userID})
		}
	}
	return rows, likes
}
