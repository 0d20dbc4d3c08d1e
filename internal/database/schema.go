package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tastebook/backend/internal/models"
)

// Secondary indexes covering every foreign-key join column. Created after
// bulk loads and on every startup; CREATE INDEX IF NOT EXISTS keeps both
// paths idempotent.
var secondaryIndexes = []struct {
	name, table, columns string
}{
	{"idx_recipes_author", "recipes", "author_id"},
	{"idx_reviews_recipe", "reviews", "recipe_id"},
	{"idx_reviews_author", "reviews", "author_id"},
	{"idx_review_likes_review", "review_likes", "review_id"},
	{"idx_review_likes_author", "review_likes", "author_id"},
	{"idx_user_follows_follower", "user_follows", "follower_id"},
	{"idx_user_follows_following", "user_follows", "following_id"},
}

var foreignKeys = []struct {
	name, ddl string
}{
	{"fk_recipes_author", "ALTER TABLE recipes ADD CONSTRAINT fk_recipes_author FOREIGN KEY (author_id) REFERENCES users(id)"},
	{"fk_recipe_ingredients_recipe", "ALTER TABLE recipe_ingredients ADD CONSTRAINT fk_recipe_ingredients_recipe FOREIGN KEY (recipe_id) REFERENCES recipes(id)"},
	{"fk_reviews_recipe", "ALTER TABLE reviews ADD CONSTRAINT fk_reviews_recipe FOREIGN KEY (recipe_id) REFERENCES recipes(id)"},
	{"fk_reviews_author", "ALTER TABLE reviews ADD CONSTRAINT fk_reviews_author FOREIGN KEY (author_id) REFERENCES users(id)"},
	{"fk_review_likes_review", "ALTER TABLE review_likes ADD CONSTRAINT fk_review_likes_review FOREIGN KEY (review_id) REFERENCES reviews(id)"},
	{"fk_review_likes_author", "ALTER TABLE review_likes ADD CONSTRAINT fk_review_likes_author FOREIGN KEY (author_id) REFERENCES users(id)"},
	{"fk_user_follows_follower", "ALTER TABLE user_follows ADD CONSTRAINT fk_user_follows_follower FOREIGN KEY (follower_id) REFERENCES users(id)"},
	{"fk_user_follows_following", "ALTER TABLE user_follows ADD CONSTRAINT fk_user_follows_following FOREIGN KEY (following_id) REFERENCES users(id)"},
}

// EnsureSchema creates all tables, constraints and indexes if absent. It is
// safe to run on every startup and never touches existing data. A failure
// here is fatal to the caller: nothing can run without a usable schema.
func EnsureSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// AutoMigrate does not emit FK constraints for flat models; add them on
	// PostgreSQL, where pg_constraint makes the existence check cheap. The
	// in-memory sqlite test databases run without FKs.
	if db.Dialector.Name() == "postgres" {
		for _, fk := range foreignKeys {
			var count int64
			if err := db.Raw(
				"SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", fk.name,
			).Scan(&count).Error; err != nil {
				return fmt.Errorf("failed to check constraint %s: %w", fk.name, err)
			}
			if count > 0 {
				continue
			}
			if err := db.Exec(fk.ddl).Error; err != nil {
				return fmt.Errorf("failed to add constraint %s: %w", fk.name, err)
			}
		}
	}

	return EnsureIndexes(db)
}

// EnsureIndexes creates the secondary FK-join indexes if missing.
func EnsureIndexes(db *gorm.DB) error {
	for _, idx := range secondaryIndexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropAll removes every table in the schema. Destructive; test/reset only.
func DropAll(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		rows, err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		var tables []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			tables = append(tables, name)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, name := range tables {
			if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q CASCADE", name)).Error; err != nil {
				return err
			}
		}
		return nil
	}

	// Reverse dependency order so FK-less dialects stay consistent too.
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return err
		}
	}
	return nil
}
