// api/routes/router.go
package routes

import (
	"fmt"
	"net/http"
	"time"

	"bookly/internal/auth"
	"bookly/internal/books"
	"bookly/internal/reviews"
	"bookly/internal/shared/config"
	"bookly/internal/shared/database"
	"bookly/internal/shared/middleware"
	"bookly/internal/shared/tokens"
	"bookly/internal/users"
	"bookly/pkg/cache"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "bookly/docs"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	mailer auth.Mailer

	cache       cache.Service
	tokens      *tokens.Service
	revocations tokens.RevocationStore
	users       users.Repository
	guards      *middleware.Guards
}

// NewRouter builds the shared services every feature router depends on.
func NewRouter(cfg *config.Config, db *database.DB, mailer auth.Mailer) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tokenService, err := tokens.NewService(tokens.Config{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		AccessTTL:  cfg.JWT.JWTExpiresIn,
		RefreshTTL: cfg.JWT.RefreshExpiresIn,
		VerifyTTL:  cfg.JWT.VerifyExpiresIn,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	cacheService := cache.NewService(db.Redis)
	revocations := tokens.NewRevocationStore(cacheService)
	userRepo := users.NewRepository(db.PostgreSQL)

	return &Router{
		config:      cfg,
		db:          db,
		mailer:      mailer,
		cache:       cacheService,
		tokens:      tokenService,
		revocations: revocations,
		users:       userRepo,
		guards: &middleware.Guards{
			Decoder:        tokenService,
			Revocations:    revocations,
			Users:          userRepo,
			VerifiedWrites: cfg.Policy.VerifiedWrites,
		},
	}, nil
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	bookService := books.NewService(books.NewRepository(r.db.PostgreSQL), r.cache, r.config.Redis.BookCacheTTL)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api, bookService)
		r.setupBookRoutes(api, bookService)
		r.setupReviewRoutes(api, bookService)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "bookly-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "bookly-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup, bookService books.Service) {
	authService := auth.NewService(r.users, r.tokens, r.revocations, r.mailer, bookService, r.config)
	auth.NewRouter(auth.NewController(authService), r.guards).SetupRoutes(rg)
}

// setupBookRoutes configures book catalogue routes
func (r *Router) setupBookRoutes(rg *gin.RouterGroup, bookService books.Service) {
	books.NewRouter(books.NewController(bookService), r.guards).SetupRoutes(rg)
}

// setupReviewRoutes configures review routes
func (r *Router) setupReviewRoutes(rg *gin.RouterGroup, bookService books.Service) {
	reviewService := reviews.NewService(reviews.NewRepository(r.db.PostgreSQL), bookService)
	reviews.NewRouter(reviews.NewController(reviewService), r.guards).SetupRoutes(rg)
}
