package app

import (
	"log"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/handlers"
	"bookshelf/internal/repositories"
	"bookshelf/internal/services"
	"bookshelf/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps are the long-lived resources the HTTP app is built on.
type Deps struct {
	DB        *gorm.DB
	Blobs     *storage.BlobStore
	Publisher services.EventPublisher // optional
	Tokens    *services.TokenService  // optional, built from Config.JWTSecret when nil
}

// New builds the Fiber app with every route registered.
func New(cfg *config.Config, deps Deps) *fiber.App {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = services.NewTokenService(cfg.JWTSecret)
	}

	userRepo := repositories.NewGORMUserRepository(deps.DB)
	bookRepo := repositories.NewGORMBookRepository(deps.DB)

	authService := services.NewAuthService(userRepo, tokens, cfg.AccessTokenTTL)
	bookService := services.NewBookService(bookRepo, deps.Blobs, deps.Publisher)

	authHandler := handlers.NewAuthHandler(authService)
	bookHandler := handlers.NewBookHandler(bookService, authService)
	staticHandler := handlers.NewStaticHandler(cfg.StaticDir)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	authHandler.RegisterRoutes(app)
	bookHandler.RegisterRoutes(app)
	// Catch-all, so it goes last
	staticHandler.RegisterRoutes(app)

	return app
}
