package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookly/internal/books"
	"bookly/internal/reviews"
	"bookly/internal/shared/config"
	"bookly/internal/shared/database"
	"bookly/internal/users"
	"bookly/pkg/cache"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting Bookly database seeder...")

	// .env is optional; the environment wins either way
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nSeeding completed. Log in as admin@bookly.dev / qwerty123")
}

// CleanDatabase truncates all tables, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{"reviews", "books", "users"}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	userIDs, err := s.SeedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	bookIDs, err := s.SeedBooks(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to seed books: %w", err)
	}

	if err := s.SeedReviews(ctx, userIDs, bookIDs); err != nil {
		return fmt.Errorf("failed to seed reviews: %w", err)
	}

	// Drop cached book views and revoked tokens from a previous run
	keys, err := s.db.Redis.Keys(ctx, cache.Key("*")).Result()
	if err != nil {
		log.Printf("Warning: failed to list cached keys: %v", err)
		return nil
	}
	if len(keys) > 0 {
		if err := s.db.Redis.Del(ctx, keys...).Err(); err != nil {
			log.Printf("Warning: failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

// SeedUsers creates 1 admin and 2 regular users
func (s *Seeder) SeedUsers(ctx context.Context) (map[string]uuid.UUID, error) {
	fmt.Println("  Seeding users...")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		username  string
		firstName string
		lastName  string
		email     string
		role      string
	}{
		{"admin", "Admin", "User", "admin@bookly.dev", users.RoleAdmin},
		{"ada", "Ada", "Lovelace", "ada@bookly.dev", users.RoleUser},
		{"alan", "Alan", "Turing", "alan@bookly.dev", users.RoleUser},
	}

	repo := users.NewRepository(s.db.PostgreSQL)
	userIDs := make(map[string]uuid.UUID)
	for _, userData := range usersData {
		user := users.User{
			Username:     userData.username,
			FirstName:    userData.firstName,
			LastName:     userData.lastName,
			Email:        userData.email,
			PasswordHash: string(hashedPassword),
			Role:         userData.role,
			IsVerified:   true,
		}

		if err := repo.Create(ctx, &user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.username] = user.UID
		fmt.Printf("    Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedBooks creates a small catalogue owned by the regular users
func (s *Seeder) SeedBooks(ctx context.Context, userIDs map[string]uuid.UUID) ([]uuid.UUID, error) {
	fmt.Println("  Seeding books...")

	booksData := []struct {
		owner string
		book  books.CreateBookRequest
	}{
		{"ada", books.CreateBookRequest{
			Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson",
			Publisher: "MIT Press", PublishedDate: "1985-07-01", PageCount: 657, Language: "English",
		}},
		{"ada", books.CreateBookRequest{
			Title: "The Art of Computer Programming", Author: "Donald Knuth",
			Publisher: "Addison-Wesley", PublishedDate: "1968-01-01", PageCount: 672, Language: "English",
		}},
		{"alan", books.CreateBookRequest{
			Title: "Gödel, Escher, Bach", Author: "Douglas Hofstadter",
			Publisher: "Basic Books", PublishedDate: "1979-01-01", PageCount: 777, Language: "English",
		}},
	}

	// cache is not needed while seeding
	service := books.NewService(books.NewRepository(s.db.PostgreSQL), nil, time.Minute)
	var ids []uuid.UUID
	for _, data := range booksData {
		book, err := service.Create(ctx, userIDs[data.owner], &data.book)
		if err != nil {
			return nil, fmt.Errorf("failed to create book %q: %w", data.book.Title, err)
		}
		ids = append(ids, book.UID)
		fmt.Printf("    Created book: %s\n", book.Title)
	}
	return ids, nil
}

// SeedReviews has both regular users review every book
func (s *Seeder) SeedReviews(ctx context.Context, userIDs map[string]uuid.UUID, bookIDs []uuid.UUID) error {
	fmt.Println("  Seeding reviews...")

	repo := reviews.NewRepository(s.db.PostgreSQL)
	texts := map[string]string{
		"ada":  "Dense, rewarding and worth a second read.",
		"alan": "A classic for a reason.",
	}

	for _, reviewer := range []string{"ada", "alan"} {
		uid := userIDs[reviewer]
		for i, bookUID := range bookIDs {
			bookUID := bookUID
			review := &reviews.Review{
				Rating:     4 + i%2,
				ReviewText: texts[reviewer],
				UserUID:    &uid,
				BookUID:    &bookUID,
			}
			if err := repo.Create(ctx, review); err != nil {
				return fmt.Errorf("failed to create review: %w", err)
			}
		}
	}
	return nil
}
