package database

import (
	"fmt"

	"gorm.io/gorm"
)

type constraint struct {
	table string
	name  string
	def   string
}

var constraints = []constraint{
	{"books", "fk_books_user", "FOREIGN KEY (user_uid) REFERENCES users(uid) ON DELETE SET NULL"},
	{"reviews", "fk_reviews_book", "FOREIGN KEY (book_uid) REFERENCES books(uid) ON DELETE CASCADE"},
	{"reviews", "fk_reviews_user", "FOREIGN KEY (user_uid) REFERENCES users(uid) ON DELETE SET NULL"},
	{"reviews", "chk_reviews_rating", "CHECK (rating BETWEEN 1 AND 5)"},
}

// MigrateConstraints adds foreign keys and checks. PostgreSQL has no
// ADD CONSTRAINT IF NOT EXISTS, so each one is guarded by a catalog lookup.
func MigrateConstraints(db *gorm.DB) error {
	for _, c := range constraints {
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s %s;
				END IF;
			END
			$$;`, c.name, c.table, c.name, c.def)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}

	// Index for listing a user's reviews newest first
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reviews_user_created
		ON reviews (user_uid, created_at DESC);
	`).Error
}
