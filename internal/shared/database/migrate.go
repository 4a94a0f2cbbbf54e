package database

import (
	"fmt"

	"bookly/internal/books"
	"bookly/internal/reviews"
	"bookly/internal/users"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema. Constraints gorm cannot express are
// only applied on PostgreSQL.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&books.Book{},
		&reviews.Review{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := MigrateConstraints(db); err != nil {
		return fmt.Errorf("constraints: %w", err)
	}
	return nil
}
