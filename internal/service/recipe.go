package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastebook/backend/internal/cache"
	"github.com/tastebook/backend/internal/models"
)

// Analytics cache keys, invalidated by any recipe or ingredient mutation.
const (
	cacheKeyCaloriePair    = "analytics:closest-calorie-pair"
	cacheKeyTopIngredients = "analytics:top-ingredients"
)

// RecipeDetail is the single read shape for recipe rows: the persisted
// columns plus the joined author name and the ingredient set. Null handling
// happens exactly once, here — a missing aggregate rating stays null.
type RecipeDetail struct {
	models.Recipe `gorm:"embedded"`
	AuthorName    string   `gorm:"column:author_name" json:"author_name"`
	Ingredients   []string `gorm:"-" json:"ingredients"`
}

// CaloriePair is the closest-calorie analytics result. RecipeA < RecipeB.
type CaloriePair struct {
	RecipeA    int64   `gorm:"column:recipe_a" json:"recipe_a"`
	RecipeB    int64   `gorm:"column:recipe_b" json:"recipe_b"`
	CaloriesA  float64 `gorm:"column:calories_a" json:"calories_a"`
	CaloriesB  float64 `gorm:"column:calories_b" json:"calories_b"`
	Difference float64 `gorm:"column:diff" json:"difference"`
}

// IngredientComplexity is one row of the top-by-ingredient-count ranking.
type IngredientComplexity struct {
	RecipeID        int64  `gorm:"column:recipe_id" json:"recipe_id"`
	Name            string `gorm:"column:name" json:"name"`
	IngredientCount int    `gorm:"column:ingredient_count" json:"ingredient_count"`
}

// RecipeService serves recipe reads, mutations and analytics. Recipes whose
// author is soft-deleted are excluded from every read path.
type RecipeService struct {
	db    *gorm.DB
	auth  *AuthService
	cache cache.Store
}

// NewRecipeService creates a RecipeService. The cache may be nil, in which
// case analytics queries always hit the store.
func NewRecipeService(db *gorm.DB, auth *AuthService, cache cache.Store) *RecipeService {
	return &RecipeService{db: db, auth: auth, cache: cache}
}

// GetByID returns one recipe with its author name and case-insensitively
// sorted ingredient list. Recipes of deleted authors are absent, not hidden
// errors. Ingredients are nil when the recipe has none.
func (s *RecipeService) GetByID(ctx context.Context, id int64) (*RecipeDetail, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid recipe id", ErrInvalidInput)
	}

	var detail RecipeDetail
	err := s.db.WithContext(ctx).Table("recipes").
		Select("recipes.*, u.name AS author_name").
		Joins("JOIN users u ON u.id = recipes.author_id AND u.is_deleted = ?", false).
		Where("recipes.id = ?", id).
		Take(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recipe %d", ErrNotFound, id)
		}
		return nil, err
	}

	ingredients, err := s.ingredientsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ingredients) > 0 {
		detail.Ingredients = ingredients
	}
	return &detail, nil
}

// Search pages recipes by keyword (substring over name/description,
// case-insensitive), exact category and inclusive minimum rating. Every sort
// ends in the id column so pages never overlap or skip rows.
func (s *RecipeService) Search(ctx context.Context, keyword, category string, minRating *float64, sortKey string, page, size int) (*PageResult[RecipeDetail], error) {
	build := func() *gorm.DB {
		q := s.db.WithContext(ctx).Table("recipes").
			Joins("JOIN users u ON u.id = recipes.author_id AND u.is_deleted = ?", false)
		if kw := strings.TrimSpace(keyword); kw != "" {
			like := "%" + strings.ToLower(kw) + "%"
			q = q.Where("LOWER(recipes.name) LIKE ? OR LOWER(recipes.description) LIKE ?", like, like)
		}
		if cat := strings.TrimSpace(category); cat != "" {
			q = q.Where("recipes.category = ?", cat)
		}
		if minRating != nil {
			q = q.Where("recipes.agg_rating >= ?", *minRating)
		}
		return q
	}

	fetch := build().Select("recipes.*, u.name AS author_name")
	result, err := runPage[RecipeDetail](build(), fetch, recipeOrder(sortKey), page, size)
	if err != nil {
		return nil, err
	}
	if err := s.fillIngredients(ctx, result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a recipe for the authenticated author. A zero id allocates
// MAX(id)+1; a caller-supplied id that already exists is rejected. The
// aggregate starts empty and the ingredient list is collapsed to a set.
func (s *RecipeService) Create(ctx context.Context, auth *AuthInfo, in *ImportRecipe) (int64, error) {
	authorID, err := s.auth.Authenticate(auth)
	if err != nil {
		return 0, err
	}
	if in == nil || strings.TrimSpace(in.Name) == "" {
		return 0, fmt.Errorf("%w: empty recipe name", ErrInvalidInput)
	}

	var recipeID int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipeID = in.ID
		if recipeID <= 0 {
			if err := tx.Model(&models.Recipe{}).Select("COALESCE(MAX(id), 0) + 1").Scan(&recipeID).Error; err != nil {
				return err
			}
		}

		published := in.DatePublished
		if published == nil {
			now := time.Now().UTC()
			published = &now
		}

		row := models.Recipe{
			ID:            recipeID,
			Name:          strings.TrimSpace(in.Name),
			AuthorID:      authorID,
			CookTime:      in.CookTime,
			PrepTime:      in.PrepTime,
			TotalTime:     in.TotalTime,
			DatePublished: published,
			Description:   in.Description,
			Category:      in.Category,
			Calories:      in.Calories,
			Fat:           in.Fat,
			SaturatedFat:  in.SaturatedFat,
			Cholesterol:   in.Cholesterol,
			Sodium:        in.Sodium,
			Carbohydrate:  in.Carbohydrate,
			Fiber:         in.Fiber,
			Sugar:         in.Sugar,
			Protein:       in.Protein,
			Servings:      in.Servings,
			Yield:         in.Yield,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: recipe id %d already exists", ErrInvalidInput, recipeID)
		}

		var parts []models.RecipeIngredient
		for _, p := range in.Ingredients {
			if strings.TrimSpace(p) == "" {
				continue
			}
			parts = append(parts, models.RecipeIngredient{RecipeID: recipeID, Ingredient: p})
		}
		if len(parts) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&parts).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateAnalytics(ctx)
	return recipeID, nil
}

// Delete removes a recipe with its ingredients, reviews and their likes.
// Only the author may delete; the whole cascade commits atomically.
func (s *RecipeService) Delete(ctx context.Context, auth *AuthInfo, recipeID int64) error {
	if recipeID <= 0 {
		return fmt.Errorf("%w: invalid recipe id", ErrInvalidInput)
	}
	userID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id", "author_id").First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
			}
			return err
		}
		if recipe.AuthorID != userID {
			return fmt.Errorf("%w: not the recipe author", ErrForbidden)
		}

		if err := tx.Where("review_id IN (?)",
			tx.Model(&models.Review{}).Select("id").Where("recipe_id = ?", recipeID),
		).Delete(&models.ReviewLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
	if err != nil {
		return err
	}

	s.invalidateAnalytics(ctx)
	return nil
}

// UpdateTimes sets cook and/or prep time from ISO-8601 durations and
// re-derives the total. Nil arguments keep the stored value; both nil is a
// no-op. Only the author may update.
func (s *RecipeService) UpdateTimes(ctx context.Context, auth *AuthInfo, recipeID int64, cookISO, prepISO *string) error {
	if cookISO == nil && prepISO == nil {
		return nil
	}
	if recipeID <= 0 {
		return fmt.Errorf("%w: invalid recipe id", ErrInvalidInput)
	}
	userID, err := s.auth.Authenticate(auth)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id", "author_id", "cook_time", "prep_time").First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: recipe %d", ErrNotFound, recipeID)
			}
			return err
		}
		if recipe.AuthorID != userID {
			return fmt.Errorf("%w: not the recipe author", ErrForbidden)
		}

		finalCook := recipe.CookTime
		if cookISO != nil {
			finalCook = *cookISO
		}
		finalPrep := recipe.PrepTime
		if prepISO != nil {
			finalPrep = *prepISO
		}

		cook, err := parseISODuration(finalCook)
		if err != nil {
			return err
		}
		prep, err := parseISODuration(finalPrep)
		if err != nil {
			return err
		}

		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]any{
			"cook_time":  finalCook,
			"prep_time":  finalPrep,
			"total_time": formatISODuration(cook + prep),
		}).Error
	})
}

// closestCaloriePairSQL: in one dimension the closest pair is adjacent after
// sorting by calories, so LAG over (calories, id) covers every candidate.
const closestCaloriePairSQL = `
WITH ordered AS (
    SELECT id, calories,
           LAG(id)       OVER (ORDER BY calories ASC, id ASC) AS prev_id,
           LAG(calories) OVER (ORDER BY calories ASC, id ASC) AS prev_cal
    FROM recipes
    WHERE calories IS NOT NULL
), diffs AS (
    SELECT CASE WHEN id < prev_id THEN id       ELSE prev_id  END AS recipe_a,
           CASE WHEN id < prev_id THEN prev_id  ELSE id       END AS recipe_b,
           CASE WHEN id < prev_id THEN calories ELSE prev_cal END AS calories_a,
           CASE WHEN id < prev_id THEN prev_cal ELSE calories END AS calories_b,
           ABS(calories - prev_cal) AS diff
    FROM ordered
    WHERE prev_id IS NOT NULL
)
SELECT recipe_a, recipe_b, calories_a, calories_b, diff
FROM diffs
ORDER BY diff ASC, recipe_a ASC, recipe_b ASC
LIMIT 1`

// ClosestCaloriePair finds the two known-calorie recipes with the smallest
// absolute calorie difference, ties broken by the smaller id pair.
func (s *RecipeService) ClosestCaloriePair(ctx context.Context) (*CaloriePair, error) {
	var pair CaloriePair
	if s.cache != nil && s.cache.Get(ctx, cacheKeyCaloriePair, &pair) {
		return &pair, nil
	}

	res := s.db.WithContext(ctx).Raw(closestCaloriePairSQL).Scan(&pair)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: fewer than two recipes with known calories", ErrNotFound)
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKeyCaloriePair, &pair)
	}
	return &pair, nil
}

const topIngredientsSQL = `
SELECT ri.recipe_id, r.name, COUNT(DISTINCT ri.ingredient) AS ingredient_count
FROM recipe_ingredients ri
JOIN recipes r ON r.id = ri.recipe_id
GROUP BY ri.recipe_id, r.name
ORDER BY ingredient_count DESC, ri.recipe_id ASC
LIMIT 3`

// TopComplexByIngredients ranks recipes by distinct ingredient count
// descending, id ascending, limited to the top 3.
func (s *RecipeService) TopComplexByIngredients(ctx context.Context) ([]IngredientComplexity, error) {
	var rows []IngredientComplexity
	if s.cache != nil && s.cache.Get(ctx, cacheKeyTopIngredients, &rows) {
		return rows, nil
	}

	if err := s.db.WithContext(ctx).Raw(topIngredientsSQL).Scan(&rows).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKeyTopIngredients, rows)
	}
	return rows, nil
}

func (s *RecipeService) invalidateAnalytics(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, cacheKeyCaloriePair, cacheKeyTopIngredients)
	}
}

func (s *RecipeService) ingredientsFor(ctx context.Context, recipeID int64) ([]string, error) {
	var parts []string
	if err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Where("recipe_id = ?", recipeID).
		Pluck("ingredient", &parts).Error; err != nil {
		return nil, err
	}
	sortIngredients(parts)
	return parts, nil
}

// fillIngredients loads the ingredient sets for one page of recipes in a
// single query. Page items always carry a non-nil (possibly empty) list.
func (s *RecipeService) fillIngredients(ctx context.Context, items []RecipeDetail) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
	}

	var rows []models.RecipeIngredient
	if err := s.db.WithContext(ctx).Where("recipe_id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}

	byRecipe := make(map[int64][]string, len(items))
	for _, row := range rows {
		byRecipe[row.RecipeID] = append(byRecipe[row.RecipeID], row.Ingredient)
	}
	for i := range items {
		parts := byRecipe[items[i].ID]
		sortIngredients(parts)
		if parts == nil {
			parts = []string{}
		}
		items[i].Ingredients = parts
	}
	return nil
}

func sortIngredients(parts []string) {
	sort.Slice(parts, func(i, j int) bool {
		return strings.ToLower(parts[i]) < strings.ToLower(parts[j])
	})
}

func recipeOrder(sortKey string) string {
	switch strings.ToLower(strings.TrimSpace(sortKey)) {
	case "rating_desc":
		return "recipes.agg_rating DESC NULLS LAST, recipes.id DESC"
	case "date_desc":
		return "recipes.date_published DESC NULLS LAST, recipes.id DESC"
	case "calories_asc":
		return "recipes.calories ASC NULLS LAST, recipes.id ASC"
	default:
		return "recipes.id ASC"
	}
}
