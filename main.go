package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"market/internal/config"
	"market/internal/handlers"
	"market/internal/middleware"
	"market/internal/services"
	"market/internal/storage"
	"market/internal/uow"
	"market/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Initialize RabbitMQ Client ---
	// Events are optional: without RABBITMQ_URL committed changes are simply
	// not announced.
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		events = mqClient
	}

	app, closeApp, err := NewApp(cfg, events)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer closeApp()

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for marketplace events...")
			if consumerErr := mqClient.ConsumeEvents(rabbitmq.LogEvent); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// NewApp wires the store, services and handlers into a Fiber app. events may
// be nil. The returned function releases the store.
func NewApp(cfg config.Config, events services.EventPublisher) (*fiber.App, func() error, error) {
	factory, closeStore, err := uow.NewFactory(cfg)
	if err != nil {
		return nil, nil, err
	}

	media, err := storage.NewOSMediaStore(cfg.MediaPath)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	tokens, err := services.NewTokenManager(cfg.HashAlgorithm, cfg.HashSecretKey, cfg.AccessTokenExpiry)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	auth := services.AuthProvider{
		Hasher: services.NewBcryptHasher(cfg.BcryptCost),
		Tokens: tokens,
	}

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(auth)
	userHandler := handlers.NewUserHandler(services.NewUserService())
	productHandler := handlers.NewProductHandler(services.NewProductService(events))
	imageHandler := handlers.NewImageHandler(services.NewImageService(media))
	productImageHandler := handlers.NewProductImageHandler(services.NewProductImageService())
	cartHandler := handlers.NewCartHandler(services.NewCartService(events))

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events != nil,
		})
	})
	imageHandler.RegisterMediaRoutes(app)

	// Every API request gets its own unit of work.
	app.Use(middleware.UnitOfWork(factory))
	authRequired := middleware.AuthRequired(auth)

	// --- API Routes ---
	authHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app, authRequired)
	productHandler.RegisterRoutes(app, authRequired)
	imageHandler.RegisterRoutes(app)
	productImageHandler.RegisterRoutes(app, authRequired)
	cartHandler.RegisterRoutes(app, authRequired)

	return app, closeStore, nil
}
