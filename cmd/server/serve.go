package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/http/routes"
	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/core/services"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations and seeders on startup")
}

func serve() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if !skipMigrate {
		if err := models.AutoMigrate(db); err != nil {
			log.Fatalf("❌ Failed to auto migrate: %v", err)
		}
		log.Println("✅ Database migration completed")

		if err := config.NewSeeder(db, cfg.Admin).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed data: %v", err)
		}
	}

	// Redis is optional; recovery codes fall back to process memory
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Printf("⚠️ Redis unavailable, using in-memory recovery codes: %v", err)
	}
	codes, memoryCodes := recoveryStore(redisClient)

	mailer := services.NewMailer(cfg.Mail, config.NewCircuitBreaker("SMTP-Mail"))
	auditor := services.NewAuditRecorder(repositories.NewAuditRepository(db), cfg.Audit.BufferSize, cfg.Audit.MaxRetries)

	// Maintenance jobs: token purge, recovery code purge, low stock report
	cronService := services.NewCronService(
		repositories.NewRefreshTokenRepository(db),
		repositories.NewVaccineRepository(db),
		memoryCodes,
		cfg.Inventory.LowStockThreshold,
	)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}

	app := newApp(cfg)

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	if err := routes.Setup(app, &routes.Dependencies{
		DB:      db,
		Config:  cfg,
		Auditor: auditor,
		Codes:   codes,
		Mailer:  mailer,
		Redis:   redisClient,
	}); err != nil {
		log.Fatalf("❌ Failed to setup routes: %v", err)
	}

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := auditor.Stop(ctx); err != nil {
		log.Printf("⚠️ Audit recorder not drained: %v", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	return nil
}

// newApp creates the Fiber app with sonic as the JSON codec
func newApp(cfg *config.Config) *fiber.App {
	bodyLimit := cfg.Upload.MaxFiles*int(cfg.Upload.MaxFileBytes) + 1024*1024
	if bodyLimit < fiber.DefaultBodyLimit {
		bodyLimit = fiber.DefaultBodyLimit
	}

	return fiber.New(fiber.Config{
		AppName:      "Sistema de Vacunación API v1.0",
		ErrorHandler: middleware.NewErrorHandler(cfg),
		BodyLimit:    bodyLimit,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})
}

// recoveryStore picks Redis when connected, otherwise the in-memory store.
// The memory store is also returned so cron can purge it.
func recoveryStore(client *redis.Client) (services.CodeStore, *services.MemoryCodeStore) {
	if client != nil {
		return services.NewRedisCodeStore(client, config.NewCircuitBreaker("Redis-Recovery")), nil
	}
	memory := services.NewMemoryCodeStore()
	return memory, memory
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
