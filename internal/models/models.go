package models

import "time"

// Gender values accepted by registration and profile updates.
const (
	GenderMale    = "Male"
	GenderFemale  = "Female"
	GenderUnknown = "Unknown"
)

// ValidGender reports whether g is one of the fixed gender values.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

// User is an account row. Users are never hard-deleted; IsDeleted marks the
// account inactive while its recipes and reviews stay behind for referential
// integrity. FollowerCount/FollowingCount mirror the bulk-load source data;
// read paths always derive counts from user_follows instead.
type User struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name           string `gorm:"size:255;not null;uniqueIndex:idx_users_name" json:"name"`
	Gender         string `gorm:"size:10;check:gender IN ('Male','Female','Unknown')" json:"gender"`
	Age            int    `gorm:"check:age > 0" json:"age"`
	FollowerCount  int    `gorm:"not null;default:0" json:"follower_count"`
	FollowingCount int    `gorm:"not null;default:0" json:"following_count"`
	Credential     string `gorm:"size:255" json:"-"`
	IsDeleted      bool   `gorm:"not null;default:false" json:"is_deleted"`
}

func (User) TableName() string { return "users" }

// Recipe is a recipe row. AggRating and ReviewCount are derived from the
// reviews table and recomputed inside every review-mutating transaction;
// AggRating is nil when the recipe has no reviews. Time fields hold ISO-8601
// durations as published by the source dataset.
type Recipe struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name          string     `gorm:"size:500;not null" json:"name"`
	AuthorID      int64      `gorm:"not null" json:"author_id"`
	CookTime      string     `gorm:"size:50" json:"cook_time"`
	PrepTime      string     `gorm:"size:50" json:"prep_time"`
	TotalTime     string     `gorm:"size:50" json:"total_time"`
	DatePublished *time.Time `json:"date_published"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"size:255" json:"category"`
	AggRating     *float64   `gorm:"type:decimal(3,2);check:agg_rating >= 0 AND agg_rating <= 5" json:"agg_rating"`
	ReviewCount   int        `gorm:"not null;default:0;check:review_count >= 0" json:"review_count"`
	Calories      *float64   `gorm:"type:decimal(10,2)" json:"calories"`
	Fat           *float64   `gorm:"type:decimal(10,2)" json:"fat"`
	SaturatedFat  *float64   `gorm:"type:decimal(10,2)" json:"saturated_fat"`
	Cholesterol   *float64   `gorm:"type:decimal(10,2)" json:"cholesterol"`
	Sodium        *float64   `gorm:"type:decimal(10,2)" json:"sodium"`
	Carbohydrate  *float64   `gorm:"type:decimal(10,2)" json:"carbohydrate"`
	Fiber         *float64   `gorm:"type:decimal(10,2)" json:"fiber"`
	Sugar         *float64   `gorm:"type:decimal(10,2)" json:"sugar"`
	Protein       *float64   `gorm:"type:decimal(10,2)" json:"protein"`
	Servings      string     `gorm:"size:100" json:"servings"`
	Yield         string     `gorm:"size:100" json:"yield"`
}

func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient is one element of a recipe's ingredient set. The composite
// primary key gives set semantics: duplicates within a recipe collapse.
type RecipeIngredient struct {
	RecipeID   int64  `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	Ingredient string `gorm:"primaryKey;size:500" json:"ingredient"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

// Review is one user's review of one recipe. The unique (recipe, author)
// index enforces the one-review-per-author-per-recipe invariant at the store,
// so it holds under concurrent attempts without application locking.
type Review struct {
	ID          int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RecipeID    int64      `gorm:"not null;uniqueIndex:idx_reviews_recipe_author" json:"recipe_id"`
	AuthorID    int64      `gorm:"not null;uniqueIndex:idx_reviews_recipe_author" json:"author_id"`
	Rating      float64    `gorm:"check:rating >= 1 AND rating <= 5" json:"rating"`
	Body        string     `gorm:"type:text" json:"body"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ModifiedAt  *time.Time `json:"modified_at"`
}

func (Review) TableName() string { return "reviews" }

// ReviewLike is a like edge from a user to a review.
type ReviewLike struct {
	ReviewID int64 `gorm:"primaryKey;autoIncrement:false" json:"review_id"`
	AuthorID int64 `gorm:"primaryKey;autoIncrement:false" json:"author_id"`
}

func (ReviewLike) TableName() string { return "review_likes" }

// UserFollow is a directed follow edge: FollowerID follows FollowingID.
type UserFollow struct {
	FollowerID  int64 `gorm:"primaryKey;autoIncrement:false;check:follower_id <> following_id" json:"follower_id"`
	FollowingID int64 `gorm:"primaryKey;autoIncrement:false" json:"following_id"`
}

func (UserFollow) TableName() string { return "user_follows" }

// All lists every persisted entity in foreign-key dependency order, as
// expected by schema migration and drop.
func All() []any {
	return []any{
		&User{},
		&Recipe{},
		&RecipeIngredient{},
		&Review{},
		&ReviewLike{},
		&UserFollow{},
	}
}
